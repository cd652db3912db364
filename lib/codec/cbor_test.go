// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Kind   string    `json:"kind"`
	Amount string    `json:"amount"`
	Time   time.Time `json:"time"`
	Note   string    `json:"note,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{"b": 2, "a": 1, "c": "three"}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, _ := Marshal(value)
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal is not deterministic")
		}
	}
}

func TestTimePrecisionSurvives(t *testing.T) {
	original := sample{
		Kind:   "deposit",
		Amount: "12.50",
		Time:   time.Date(2026, 5, 4, 10, 30, 0, 123456789, time.UTC),
	}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sample
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Time.Equal(original.Time) {
		t.Errorf("time = %v, want %v", decoded.Time, original.Time)
	}

	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `0("2026-05-04T10:30:00.123456789Z")`) {
		t.Errorf("diagnostic %s lacks a tagged RFC 3339 time", diagnostic)
	}
	if strings.Contains(diagnostic, "note") {
		t.Errorf("omitempty field encoded: %s", diagnostic)
	}
}

func TestStreamSequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, kind := range []string{"deposit", "withdrawal"} {
		if err := encoder.Encode(sample{Kind: kind}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var kinds []string
	for {
		var item sample
		err := decoder.Decode(&item)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		kinds = append(kinds, item.Kind)
	}
	if strings.Join(kinds, ",") != "deposit,withdrawal" {
		t.Errorf("decoded %v", kinds)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var value sample
	if err := Unmarshal([]byte{0xff, 0xfe}, &value); err == nil {
		t.Error("expected an error for invalid CBOR")
	}
}
