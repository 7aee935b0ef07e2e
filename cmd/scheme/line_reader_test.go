package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestCookedLineReader(t *testing.T) {
	rl := newLineReader(strings.NewReader("(+ 1 2)\nhello\n"), io.Discard, false)

	line, err := rl.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "(+ 1 2)" {
		t.Fatalf("got %q", line)
	}

	line, err = rl.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "hello" {
		t.Fatalf("got %q", line)
	}

	_, err = rl.ReadLine()
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCookedLineReaderNoTrailingNewline(t *testing.T) {
	rl := newLineReader(strings.NewReader("abc"), io.Discard, false)
	line, err := rl.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "abc" {
		t.Fatalf("got %q", line)
	}
}

func TestRawLineReaderBackspace(t *testing.T) {
	var out bytes.Buffer
	// "ab" then backspace then "c" then Enter.
	input := "ab\x7fc\r"
	rl := newLineReader(strings.NewReader(input), &out, true)
	line, err := rl.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "ac" {
		t.Fatalf("got %q", line)
	}
}

func TestRawLineReaderCtrlDOnEmptyLineIsEOF(t *testing.T) {
	var out bytes.Buffer
	rl := newLineReader(strings.NewReader("\x04"), &out, true)
	_, err := rl.ReadLine()
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestRawLineReaderCtrlDMidLineIsIgnored(t *testing.T) {
	var out bytes.Buffer
	rl := newLineReader(strings.NewReader("a\x04b\r"), &out, true)
	line, err := rl.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "ab" {
		t.Fatalf("got %q", line)
	}
}

func TestReadFormAccumulatesUntilBalanced(t *testing.T) {
	rl := newLineReader(strings.NewReader("(define (f x)\n  (+ x 1))\n"), io.Discard, false)
	form, err := readForm(rl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(form, "define") || !strings.Contains(form, "+ x 1") {
		t.Fatalf("got %q", form)
	}
}
