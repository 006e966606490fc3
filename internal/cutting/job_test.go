package cutting

import "testing"

func TestTimeRangeJobRange(t *testing.T) {
	begin, duration := EntireMedia().JobRange()
	if begin != 0 || duration != 0 {
		t.Errorf("entire media = %d, %d, want 0, 0", begin, duration)
	}

	begin, duration = TimeRange{BeginTime: 30, EndTime: 75}.JobRange()
	if begin != 30 || duration != 45 {
		t.Errorf("bounded = %d, %d, want 30, 45", begin, duration)
	}
}

func TestTimeRangeJobRangeIgnoresFlaggedFields(t *testing.T) {
	begin, duration := TimeRange{BeginTime: 30, EndTime: 75, FromBegin: true}.JobRange()
	if begin != 0 || duration != 75 {
		t.Errorf("from begin = %d, %d, want 0, 75", begin, duration)
	}

	begin, duration = TimeRange{BeginTime: 5, EndTime: 99, ToEnd: true}.JobRange()
	if begin != 5 || duration != 0 {
		t.Errorf("to end = %d, %d, want 5, 0", begin, duration)
	}
}
