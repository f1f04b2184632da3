package world

import "testing"

func TestDeliveryDue(t *testing.T) {
	tests := []struct {
		name      string
		freq      DeliveryFrequency
		turn      int64
		startTurn int64
		want      bool
	}{
		{"per turn always", DeliverPerTurn, 13, 1, true},
		{"weekly on multiple", DeliverWeekly, 14, 1, true},
		{"weekly off multiple", DeliverWeekly, 15, 1, false},
		{"monthly on multiple", DeliverMonthly, 60, 1, true},
		{"monthly off multiple", DeliverMonthly, 61, 1, false},
		{"quarterly on multiple", DeliverQuarterly, 180, 1, true},
		{"one time at start", DeliverOneTime, 5, 5, true},
		{"one time after start", DeliverOneTime, 6, 5, false},
		{"unknown frequency", DeliveryFrequency("bogus"), 10, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeliveryDue(tt.freq, tt.turn, tt.startTurn); got != tt.want {
				t.Errorf("DeliveryDue(%s, %d, %d) = %v, want %v", tt.freq, tt.turn, tt.startTurn, got, tt.want)
			}
		})
	}
}

func TestMergeQuality(t *testing.T) {
	got := MergeQuality(0.8, 100, 0.6, 50)
	want := (0.8*100 + 0.6*50) / 150
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("MergeQuality = %f, want %f", got, want)
	}

	if got := MergeQuality(0, 0, 0.9, 10); got != 0.9 {
		t.Errorf("merge into empty stack = %f, want 0.9", got)
	}
	if got := MergeQuality(0, 0, 0, 0); got != 0 {
		t.Errorf("merge of nothing = %f, want 0", got)
	}
}

func TestClamps(t *testing.T) {
	if Clamp100(150) != 100 || Clamp100(-3) != 0 || Clamp100(42) != 42 {
		t.Error("Clamp100 bounds wrong")
	}
	if Clamp01(1.5) != 1 || Clamp01(-0.1) != 0 || Clamp01(0.5) != 0.5 {
		t.Error("Clamp01 bounds wrong")
	}
}

func TestEffectivePrice(t *testing.T) {
	l := MarketListing{PricePerUnit: 100, PriceModifier: 0.15}
	if got := l.EffectivePrice(); got != 115 {
		t.Errorf("EffectivePrice = %f, want 115", got)
	}

	l.PriceModifier = -2
	if got := l.EffectivePrice(); got != 0 {
		t.Errorf("EffectivePrice with crushing modifier = %f, want 0", got)
	}
}
