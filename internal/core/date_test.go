package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-05T10:20:30.123Z", "2024-03-05T10:20:30.123Z", true},
		{"2024-03-05T12:00:00+02:00", "2024-03-05T10:00:00.000Z", true},
		{"2024-03-05 10:00:00", "2024-03-05T10:00:00.000Z", true},
		{"2024-03-05", "2024-03-05T00:00:00.000Z", true},
		{"2024-030-1", "", false},
		{"05/03/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q: expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if d.String() != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.in, d, tc.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-03-05"}`), &v); err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(v)
	if string(b) != `{"d":"2024-03-05T00:00:00.000Z"}` {
		t.Fatalf("got %s", b)
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-030-1"}`), &v); err == nil {
		t.Fatal("malformed date should fail to decode")
	}
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatal(err)
	}
	if m.Days() != 29 {
		t.Fatalf("leap february has 29 days, got %d", m.Days())
	}
	from, to := m.Range()
	if from != "2024-02-01T00:00:00.000Z" || to != "2024-03-01T00:00:00.000Z" {
		t.Fatalf("range = [%s, %s)", from, to)
	}
	if m.Next().String() != "2024-03" {
		t.Fatalf("next = %s", m.Next())
	}
	if (Month{Year: 2024, Month: time.December}).Next().String() != "2025-01" {
		t.Fatal("december should roll over")
	}
	if !m.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("last second of february should be contained")
	}
	if m.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("range end is exclusive")
	}

	for _, bad := range []string{"2024-3", "2024-13", "2024-03-01", "march"} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q: expected ErrInvalidMonth, got %v", bad, err)
		}
	}
}

func TestFlagDecodesIntegers(t *testing.T) {
	var v struct {
		A Flag `json:"a"`
		B Flag `json:"b"`
		C Flag `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":1,"b":false,"c":true}`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.A || v.B || !v.C {
		t.Fatalf("unexpected flags %+v", v)
	}
	if err := json.Unmarshal([]byte(`{"a":"yes"}`), &v); err == nil {
		t.Fatal("expected error for non-boolean")
	}
}
