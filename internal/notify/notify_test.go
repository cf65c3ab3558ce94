package notify

import "testing"

func TestLoggerSinkNeverFails(t *testing.T) {
	if err := (Logger{}).Notify("AI Budget Alert", "test message"); err != nil {
		t.Errorf("Logger.Notify: %v", err)
	}
}

func TestBestReturnsSomeSink(t *testing.T) {
	if Best() == nil {
		t.Fatal("Best returned nil sink")
	}
}
