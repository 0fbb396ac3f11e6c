package meter

import "testing"

func TestBuildSegmentsThresholds(t *testing.T) {
	segments := BuildSegments(0, 0, HorizontalSegments)
	if len(segments) != HorizontalSegments {
		t.Fatalf("len = %d, want %d", len(segments), HorizontalSegments)
	}
	if segments[0].Threshold != 5 {
		t.Fatalf("first threshold = %v, want 5", segments[0].Threshold)
	}
	if segments[len(segments)-1].Threshold != 100 {
		t.Fatalf("last threshold = %v, want 100", segments[len(segments)-1].Threshold)
	}
}

func TestBuildSegmentsColorBanding(t *testing.T) {
	segments := BuildSegments(100, 0, HorizontalSegments)
	for _, segment := range segments {
		var want Tier
		switch {
		case segment.Threshold <= 35:
			want = TierGreen
		case segment.Threshold <= 75:
			want = TierYellow
		default:
			want = TierRed
		}
		if segment.Tier != want {
			t.Fatalf("segment %d (threshold %v) tier = %s, want %s",
				segment.Index, segment.Threshold, segment.Tier, want)
		}
	}
}

func TestBuildSegmentsLitMonotonicInLevel(t *testing.T) {
	for _, count := range []int{HorizontalSegments, VerticalSegments} {
		low := BuildSegments(30, 0, count)
		high := BuildSegments(62, 0, count)
		for i := range low {
			if low[i].Lit && !high[i].Lit {
				t.Fatalf("count %d segment %d lit at level 30 but not at 62", count, i)
			}
		}
	}
}

func TestBuildSegmentsLitAtThreshold(t *testing.T) {
	segments := BuildSegments(50, 0, HorizontalSegments)
	for _, segment := range segments {
		want := segment.Threshold <= 50
		if segment.Lit != want {
			t.Fatalf("segment %d (threshold %v) lit = %v, want %v",
				segment.Index, segment.Threshold, segment.Lit, want)
		}
	}
}

func TestBuildSegmentsPeakIndicator(t *testing.T) {
	// Peak 52 sits in segment 10's band (50, 55] on the 20-segment layout.
	segments := BuildSegments(0, 52, HorizontalSegments)
	for _, segment := range segments {
		want := segment.Index == 10
		if segment.Peak != want {
			t.Fatalf("segment %d peak = %v, want %v", segment.Index, segment.Peak, want)
		}
	}
}

func TestBuildSegmentsNoPeakAtZero(t *testing.T) {
	for _, segment := range BuildSegments(0, 0, VerticalSegments) {
		if segment.Peak {
			t.Fatalf("segment %d flagged as peak with zero hold", segment.Index)
		}
	}
}

func TestBuildSegmentsPeakAtMax(t *testing.T) {
	segments := BuildSegments(0, 100, VerticalSegments)
	if !segments[len(segments)-1].Peak {
		t.Fatal("top segment should carry the peak indicator at hold 100")
	}
}
