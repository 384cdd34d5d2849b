// Package grpcfeed streams a Pine program's input rows from a server-
// streaming gRPC bars service, described by a .proto file resolved at
// runtime rather than compiled in: a protoparse.Parser loads the .proto
// into a *desc.FileDescriptor, and a dynamic.Message carries requests and
// responses without generated Go types. The call is opened with
// conn.NewStream rather than a unary Invoke so one bar arrives per row
// instead of one response per call.
package grpcfeed

import (
	"context"
	"fmt"
	"io"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/kaigouthro/pine-lang/internal/config"
	"github.com/kaigouthro/pine-lang/internal/library"
)

// Feed streams rows from one server-streaming RPC method.
type Feed struct {
	conn   *grpc.ClientConn
	stream grpc.ClientStream
	cancel context.CancelFunc
	method *desc.MethodDescriptor

	columns map[string]config.ColumnSpec
}

// Open parses spec.ProtoFile, resolves spec.Service/spec.Method within it,
// dials spec.Address, and opens the streaming call. columns declares the
// expected kind of every field the response message is read into.
func Open(spec *config.GrpcFeedSpec, columns []config.ColumnSpec) (*Feed, error) {
	parser := protoparse.Parser{ImportPaths: spec.ImportPaths}
	if len(parser.ImportPaths) == 0 {
		parser.ImportPaths = []string{"."}
	}
	fds, err := parser.ParseFiles(spec.ProtoFile)
	if err != nil {
		return nil, fmt.Errorf("parsing proto %s: %w", spec.ProtoFile, err)
	}

	var method *desc.MethodDescriptor
	for _, fd := range fds {
		svc := fd.FindService(spec.Service)
		if svc == nil {
			continue
		}
		if m := svc.FindMethodByName(spec.Method); m != nil {
			method = m
			break
		}
	}
	if method == nil {
		return nil, fmt.Errorf("method %s/%s not found in %s", spec.Service, spec.Method, spec.ProtoFile)
	}
	if !method.IsServerStreaming() {
		return nil, fmt.Errorf("method %s/%s is not server-streaming", spec.Service, spec.Method)
	}

	conn, err := grpc.NewClient(spec.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", spec.Address, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	streamDesc := &grpc.StreamDesc{
		StreamName:    method.GetName(),
		ServerStreams: true,
	}
	fullMethod := fmt.Sprintf("/%s/%s", method.GetService().GetFullyQualifiedName(), method.GetName())
	stream, err := conn.NewStream(ctx, streamDesc, fullMethod)
	if err != nil {
		cancel()
		conn.Close()
		return nil, fmt.Errorf("opening stream %s: %w", fullMethod, err)
	}

	req := dynamic.NewMessage(method.GetInputType())
	if err := stream.SendMsg(req); err != nil {
		cancel()
		conn.Close()
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		conn.Close()
		return nil, fmt.Errorf("closing send side: %w", err)
	}

	byName := make(map[string]config.ColumnSpec, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}

	return &Feed{conn: conn, stream: stream, cancel: cancel, method: method, columns: byName}, nil
}

// Close tears down the stream and its underlying connection.
func (fd *Feed) Close() error {
	fd.cancel()
	return fd.conn.Close()
}

// Next reads the next bar off the stream, returning (nil, io.EOF) once the
// server closes it.
func (fd *Feed) Next() (map[string]library.Value, error) {
	resp := dynamic.NewMessage(fd.method.GetOutputType())
	if err := fd.stream.RecvMsg(resp); err != nil {
		if err == io.EOF || status.Code(err) == codes.Canceled {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("receiving bar: %w", err)
	}

	row := make(map[string]library.Value, len(fd.columns))
	for name, col := range fd.columns {
		row[name] = fd.fieldToValue(resp, name, col)
	}
	return row, nil
}

func (fd *Feed) fieldToValue(msg *dynamic.Message, name string, col config.ColumnSpec) library.Value {
	fdesc := msg.GetMessageDescriptor().FindFieldByName(name)
	if fdesc == nil {
		return library.Na(col.ColumnKind())
	}
	raw := msg.GetField(fdesc)

	switch col.Kind {
	case "float", "Float":
		switch v := raw.(type) {
		case float64:
			return library.Float(v)
		case float32:
			return library.Float(float64(v))
		case int64:
			return library.Float(float64(v))
		case int32:
			return library.Float(float64(v))
		}
	case "int", "Int":
		switch v := raw.(type) {
		case int64:
			return library.Int(v)
		case int32:
			return library.Int(int64(v))
		case uint64:
			return library.Int(int64(v))
		case uint32:
			return library.Int(int64(v))
		}
	case "bool", "Bool":
		if v, ok := raw.(bool); ok {
			return library.Bool(v)
		}
	case "string", "String":
		if v, ok := raw.(string); ok {
			return library.String(v)
		}
	case "color", "Color":
		if v, ok := raw.(string); ok {
			return library.Color(v)
		}
	}
	return library.Na(col.ColumnKind())
}
