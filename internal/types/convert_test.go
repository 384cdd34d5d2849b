package types

import "testing"

func TestReflexivity(t *testing.T) {
	cases := []Type{
		NaSimple, BoolSimple, IntSimple, FloatSimple, ColorSimple, StringSimple,
		NaSeries, BoolSeries, IntSeries, FloatSeries,
		Tuple{Elems: []Type{IntSimple, BoolSimple}},
		Any{},
	}
	for _, ty := range cases {
		if !ConvertibleTo(ty, ty) {
			t.Errorf("ConvertibleTo(%s, %s) = false, want true", ty, ty)
		}
	}
}

func TestNaIsTop(t *testing.T) {
	if !ConvertibleTo(NaSimple, IntSimple) {
		t.Error("Simple(Na) should convert to Simple(Int)")
	}
	if !ConvertibleTo(NaSimple, IntSeries) {
		t.Error("Simple(Na) should convert to Series(Int)")
	}
	if !ConvertibleTo(NaSeries, FloatSeries) {
		t.Error("Series(Na) should convert to Series(Float)")
	}
}

func TestIntNotConvertibleToNa(t *testing.T) {
	if ConvertibleTo(IntSimple, NaSimple) {
		t.Error("Simple(Int) should not convert to Simple(Na)")
	}
}

func TestFloatNotConvertibleToInt(t *testing.T) {
	if ConvertibleTo(FloatSimple, IntSimple) {
		t.Error("Simple(Float) should not convert to Simple(Int)")
	}
	if ConvertibleTo(FloatSeries, IntSeries) {
		t.Error("Series(Float) should not convert to Series(Int)")
	}
}

func TestIntConvertsToFloatAndBool(t *testing.T) {
	if !ConvertibleTo(IntSimple, FloatSimple) {
		t.Error("Simple(Int) should convert to Simple(Float)")
	}
	if !ConvertibleTo(IntSimple, BoolSimple) {
		t.Error("Simple(Int) should convert to Simple(Bool)")
	}
	if !ConvertibleTo(IntSimple, IntSeries) {
		t.Error("Simple(Int) should convert to Series(Int)")
	}
}

func TestSeriesLiftingMonotone(t *testing.T) {
	pairs := [][2]Type{
		{NaSimple, IntSimple},
		{IntSimple, FloatSimple},
		{IntSimple, BoolSimple},
	}
	for _, p := range pairs {
		from, to := p[0], p[1]
		if !ConvertibleTo(from, to) {
			t.Fatalf("precondition failed: ConvertibleTo(%s,%s)", from, to)
		}
		sFrom, _ := AsSeries(from)
		sTo, _ := AsSeries(to)
		if !ConvertibleTo(sFrom, sTo) {
			t.Errorf("lifting not monotone: ConvertibleTo(%s,%s) but not ConvertibleTo(%s,%s)", from, to, sFrom, sTo)
		}
	}
}

func TestCommonType(t *testing.T) {
	ct, ok := CommonType(IntSimple, FloatSimple)
	if !ok || !Equal(ct, FloatSimple) {
		t.Errorf("CommonType(Int,Float) = %v,%v want Float,true", ct, ok)
	}
	ct, ok = CommonType(NaSimple, IntSimple)
	if !ok || !Equal(ct, IntSimple) {
		t.Errorf("CommonType(Na,Int) = %v,%v want Int,true", ct, ok)
	}
	if _, ok := CommonType(StringSimple, IntSimple); ok {
		t.Error("CommonType(String,Int) should be undefined")
	}
}

func TestSimilarTypeLiftsToSeries(t *testing.T) {
	st, ok := SimilarType(IntSeries, FloatSimple)
	if !ok || !Equal(st, FloatSeries) {
		t.Errorf("SimilarType(Series(Int),Simple(Float)) = %v,%v want Series(Float),true", st, ok)
	}
}
