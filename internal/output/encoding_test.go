package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

type optionalDays struct {
	v  float64
	ok bool
}

func (d optionalDays) MarshalJSON() ([]byte, error) {
	if !d.ok {
		return []byte("null"), nil
	}
	return json.Marshal(d.v)
}

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		wantJSON string
	}{
		{
			name: "struct with floats",
			input: struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
				Count int     `json:"count"`
			}{Name: "test", Score: 0.123456789, Count: 42},
			wantJSON: `{"count":42,"name":"test","score":0.123457}`,
		},
		{
			name: "omitempty honored",
			input: struct {
				Name  string   `json:"name"`
				Score *float64 `json:"score,omitempty"`
			}{Name: "test"},
			wantJSON: `{"name":"test"}`,
		},
		{
			name: "null members dropped",
			input: struct {
				Mean optionalDays `json:"mean"`
				P90  optionalDays `json:"p90"`
			}{Mean: optionalDays{}, P90: optionalDays{v: 4.5, ok: true}},
			wantJSON: `{"p90":4.5}`,
		},
		{
			name:     "map with sorted keys",
			input:    map[string]interface{}{"zebra": "last", "alpha": "first", "beta": "second"},
			wantJSON: `{"alpha":"first","beta":"second","zebra":"last"}`,
		},
		{
			name:     "timestamps keep their JSON form",
			input:    map[string]time.Time{"at": time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)},
			wantJSON: `{"at":"2025-03-31T12:00:00Z"}`,
		},
		{
			name:     "html is not escaped",
			input:    []string{"a & b", "<x>"},
			wantJSON: `["a & b","<x>"]`,
		},
		{
			name:     "nil value",
			input:    nil,
			wantJSON: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("DeterministicEncode() = %s, want %s", got, tt.wantJSON)
			}
		})
	}
}

func TestDeterministicEncodeStable(t *testing.T) {
	input := map[string]interface{}{
		"cards": []map[string]interface{}{{"score": 0.1 + 0.2, "id": "b"}, {"id": "a"}},
		"open":  8,
	}
	first, err := DeterministicEncode(input)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, _ := DeterministicEncode(input)
		if !bytes.Equal(first, again) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
	if want := `{"cards":[{"id":"b","score":0.3},{"id":"a"}],"open":8}`; string(first) != want {
		t.Errorf("got %s, want %s", first, want)
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	got, err := DeterministicEncodeIndented(map[string]int{"b": 2, "a": 1}, "  ")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"a\": 1,\n  \"b\": 2\n}"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeTypes(t *testing.T) {
	n, err := Normalize(map[string]interface{}{"i": 3, "f": 2.5, "s": "x", "b": true, "l": []int{1}})
	if err != nil {
		t.Fatal(err)
	}
	m := n.(map[string]interface{})
	if _, ok := m["i"].(int64); !ok {
		t.Errorf("int decoded as %T", m["i"])
	}
	if _, ok := m["f"].(float64); !ok {
		t.Errorf("float decoded as %T", m["f"])
	}
	if _, ok := m["l"].([]interface{}); !ok {
		t.Errorf("list decoded as %T", m["l"])
	}

	if _, err := Normalize(make(chan int)); err == nil {
		t.Error("unsupported values should fail")
	}
}
