package parser

import "testing"

func TestRegistry_Detect(t *testing.T) {
	r := GetGlobalRegistry()

	d, err := r.Detect(sampleCheckin)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if d.Name() != "checkin" {
		t.Errorf("Expected checkin decoder, got %s", d.Name())
	}

	d, err = r.Detect(sampleLogcat)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if _, ok := d.(*LogcatDecoder); !ok {
		t.Errorf("Expected *LogcatDecoder, got %T", d)
	}

	if _, err := r.Detect("just some text\nnothing else"); err == nil {
		t.Error("Expected error for unrecognised dump")
	}
}
