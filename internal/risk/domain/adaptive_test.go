package domain

import "testing"

func TestRecommendedMaxTiers(t *testing.T) {
	policy := DefaultAdaptivePolicy()

	tests := []struct {
		volatility float64
		want       int
	}{
		{10.0, 180},
		{14.99, 180},
		{15.0, 135},
		{19.99, 135},
		{20.0, 90},
		{29.99, 90},
		{30.0, 90},
		{45.0, 90},
	}
	for _, tt := range tests {
		if got := policy.RecommendedMax(tt.volatility); got != tt.want {
			t.Errorf("RecommendedMax(%.2f) = %d, want %d", tt.volatility, got, tt.want)
		}
	}
}

func TestCapacityConfidenceScaling(t *testing.T) {
	policy := DefaultAdaptivePolicy()

	// 高置信度放大并允许越权
	info := policy.Capacity(0, 0.85, 10.0)
	if info.AdaptiveMax != 216 {
		t.Errorf("high confidence adaptive max = %d, want 216", info.AdaptiveMax)
	}
	if !info.ShouldExceed {
		t.Error("high confidence should allow exceeding the base open-trade cap")
	}

	// 低置信度收缩，不允许越权
	info = policy.Capacity(0, 0.40, 10.0)
	if info.AdaptiveMax != 126 {
		t.Errorf("low confidence adaptive max = %d, want 126", info.AdaptiveMax)
	}
	if info.ShouldExceed {
		t.Error("low confidence must not allow exceeding")
	}

	// 中间置信度不缩放
	info = policy.Capacity(0, 0.65, 10.0)
	if info.AdaptiveMax != 180 || info.ShouldExceed {
		t.Errorf("neutral confidence should leave capacity unscaled, got %d", info.AdaptiveMax)
	}
}

// 缩放结果取最近整数，二进制浮点乘积不得向下截断
func TestCapacityScalingRounding(t *testing.T) {
	policy := DefaultAdaptivePolicy()

	tests := []struct {
		volatility float64
		confidence float64
		want       int
	}{
		{10.0, 0.40, 126}, // 180 × 0.7
		{25.0, 0.40, 63},  // 90 × 0.7
		{10.0, 0.85, 216}, // 180 × 1.2
		{17.0, 0.85, 162}, // 135 × 1.2
		{25.0, 0.85, 108}, // 90 × 1.2
	}
	for _, tt := range tests {
		info := policy.Capacity(0, tt.confidence, tt.volatility)
		if info.AdaptiveMax != tt.want {
			t.Errorf("Capacity(vol=%.1f, conf=%.2f).AdaptiveMax = %d, want %d",
				tt.volatility, tt.confidence, info.AdaptiveMax, tt.want)
		}
	}
}

func TestCapacityRemaining(t *testing.T) {
	policy := DefaultAdaptivePolicy()

	info := policy.Capacity(100, 0.65, 25.0)
	if info.RemainingCapacity != 0 {
		t.Errorf("remaining = %d, want 0 when current trades exceed the ceiling", info.RemainingCapacity)
	}

	info = policy.Capacity(30, 0.65, 25.0)
	if info.RemainingCapacity != 60 {
		t.Errorf("remaining = %d, want 60", info.RemainingCapacity)
	}
}
