package parser

import "testing"

func TestParseContainerRuntimeLine(t *testing.T) {
	rec, err := Parse([]byte("2024-01-01T00:00:00.000000000Z stdout F hello world"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message != "hello world" {
		t.Errorf("Message = %q, want %q", rec.Message, "hello world")
	}
	if rec.Metadata == nil || rec.Metadata.Stream != "stdout" || rec.Metadata.Flag != "F" {
		t.Errorf("Metadata = %+v, want stream=stdout flag=F", rec.Metadata)
	}
	if rec.RawLine != "2024-01-01T00:00:00.000000000Z stdout F hello world" {
		t.Errorf("RawLine not preserved: %q", rec.RawLine)
	}
}

func TestParseDockerJSON(t *testing.T) {
	rec, err := Parse([]byte(`{"log":"hello\n","stream":"stderr","time":"2024-01-01T00:00:00.123456789Z"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message != "hello" {
		t.Errorf("Message = %q, want %q (trailing whitespace trimmed)", rec.Message, "hello")
	}
	if rec.Metadata == nil || rec.Metadata.Stream != "stderr" {
		t.Errorf("Metadata = %+v, want stream=stderr", rec.Metadata)
	}
}

func TestParseApplicationJSON(t *testing.T) {
	rec, err := Parse([]byte(`{"time":"2024-01-01T00:00:00Z","level":"info","msg":"started"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message != "started" || rec.Level != "info" {
		t.Errorf("got message=%q level=%q, want message=started level=info", rec.Message, rec.Level)
	}
}

func TestParseApplicationJSONPrefersMsgOverMessage(t *testing.T) {
	rec, err := Parse([]byte(`{"time":"2024-01-01T00:00:00Z","msg":"from-msg","message":"from-message"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message != "from-msg" {
		t.Errorf("Message = %q, want from-msg (msg takes priority over message)", rec.Message)
	}
}

func TestParseSyslogRFC5424(t *testing.T) {
	rec, err := Parse([]byte("<34>1 2024-01-01T00:00:00.123Z this is the message"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message != "this is the message" {
		t.Errorf("Message = %q", rec.Message)
	}
}

func TestParseSyslogRFC3164(t *testing.T) {
	rec, err := Parse([]byte("<34>Oct 11 22:14:15 mymachine su: failure"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message != "mymachine su: failure" {
		t.Errorf("Message = %q", rec.Message)
	}
}

func TestParseUnknownFormatReturnsError(t *testing.T) {
	_, err := Parse([]byte("just some plain text with no recognizable structure"))
	if err != ErrUnknownFormat {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}
