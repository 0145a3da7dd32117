package formstream

import (
	"reflect"
	"testing"
)

func collectTokens(t *testing.T, s *StreamSearch, chunks ...string) ([]string, string) {
	t.Helper()

	var data []string
	for _, chunk := range chunks {
		for _, tok := range s.Feed([]byte(chunk)) {
			if tok.Kind == TokenMatch {
				continue
			}
			data = append(data, string(tok.Data))
		}
	}

	tail := string(s.End())
	return data, tail
}

func TestStreamSearchBasicMatch(t *testing.T) {
	s := NewStreamSearch([]byte("world"))
	data, tail := collectTokens(t, s, "hello world!")
	if got := data; !reflect.DeepEqual(got, []string{"hello ", "!"}) {
		t.Errorf("data = %#v", got)
	}
	if tail != "" {
		t.Errorf("tail = %q, want empty", tail)
	}
}

func TestStreamSearchNoMatch(t *testing.T) {
	s := NewStreamSearch([]byte("xyz"))
	data, tail := collectTokens(t, s, "hello world")
	if got := data; len(got) != 1 || got[0] != "hello world" {
		t.Errorf("data = %#v", got)
	}
	if tail != "" {
		t.Errorf("tail = %q, want empty", tail)
	}
}

func TestStreamSearchLookbehindAcrossChunks(t *testing.T) {
	s := NewStreamSearch([]byte("hello"))

	// Needle straddles the chunk boundary: "hel" | "lo world".
	toks1 := s.Feed([]byte("hel"))
	if len(toks1) != 0 {
		t.Fatalf("unexpected tokens from first chunk: %#v", toks1)
	}

	toks2 := s.Feed([]byte("lo world"))
	var gotMatch bool
	var gotData []byte
	for _, tok := range toks2 {
		if tok.Kind == TokenMatch {
			gotMatch = true
			continue
		}
		gotData = append(gotData, tok.Data...)
	}
	if !gotMatch {
		t.Fatalf("expected a match token, got %#v", toks2)
	}
	if string(gotData) != " world" {
		t.Errorf("data = %q, want %q", gotData, " world")
	}
}

func TestStreamSearchRepeatedNeedle(t *testing.T) {
	s := NewStreamSearch([]byte("9"))
	var matches int
	var data []byte
	for _, tok := range s.Feed([]byte("1234567899")) {
		if tok.Kind == TokenMatch {
			matches++
			continue
		}
		data = append(data, tok.Data...)
	}
	data = append(data, s.End()...)

	if matches != 2 {
		t.Errorf("matches = %d, want 2", matches)
	}
	if string(data) != "12345678" {
		t.Errorf("data = %q, want %q", data, "12345678")
	}
}

func TestStreamSearchByteAtATime(t *testing.T) {
	const needle = "--boundary"
	const input = "prologue--boundarydata--boundary--epilogue"

	s := NewStreamSearch([]byte(needle))

	var matches int
	var data []byte
	for i := 0; i < len(input); i++ {
		for _, tok := range s.Feed([]byte{input[i]}) {
			if tok.Kind == TokenMatch {
				matches++
				continue
			}
			data = append(data, tok.Data...)
		}
	}
	data = append(data, s.End()...)

	if matches != 2 {
		t.Errorf("matches = %d, want 2", matches)
	}
	if string(data) != "prologuedata--epilogue" {
		t.Errorf("data = %q, want %q", data, "prologuedata--epilogue")
	}
}

func TestStreamSearchChunkingInvariant(t *testing.T) {
	const needle = "--XYZ"
	const input = "aa--XYZbb--XYZcc--XYZ--dd"

	reference := scanWhole(needle, input)

	for _, size := range []int{1, 3, len(input)} {
		var matches int
		var data []byte
		s := NewStreamSearch([]byte(needle))
		for i := 0; i < len(input); i += size {
			end := i + size
			if end > len(input) {
				end = len(input)
			}
			for _, tok := range s.Feed([]byte(input[i:end])) {
				if tok.Kind == TokenMatch {
					matches++
					continue
				}
				data = append(data, tok.Data...)
			}
		}
		data = append(data, s.End()...)

		if string(data) != reference.data || matches != reference.matches {
			t.Errorf("chunk size %d: data = %q matches = %d, want %q matches = %d",
				size, data, matches, reference.data, reference.matches)
		}
	}
}

type scanResult struct {
	data    string
	matches int
}

func scanWhole(needle, input string) scanResult {
	s := NewStreamSearch([]byte(needle))
	var matches int
	var data []byte
	for _, tok := range s.Feed([]byte(input)) {
		if tok.Kind == TokenMatch {
			matches++
			continue
		}
		data = append(data, tok.Data...)
	}
	data = append(data, s.End()...)
	return scanResult{data: string(data), matches: matches}
}

func scanChunked(needle, input string, chunkSize int) scanResult {
	s := NewStreamSearch([]byte(needle))
	var matches int
	var data []byte
	for i := 0; i < len(input); i += chunkSize {
		end := i + chunkSize
		if end > len(input) {
			end = len(input)
		}
		for _, tok := range s.Feed([]byte(input[i:end])) {
			if tok.Kind == TokenMatch {
				matches++
				continue
			}
			data = append(data, tok.Data...)
		}
	}
	data = append(data, s.End()...)
	return scanResult{data: string(data), matches: matches}
}

// TestStreamSearchVectors runs the literal needle/input vectors from the
// existing test matrix at chunk sizes 1, 3 and the whole input in one feed.
func TestStreamSearchVectors(t *testing.T) {
	vectors := []struct {
		name   string
		needle string
		input  string
		want   scanResult
	}{
		{
			name:   "no match, single segment",
			needle: "0",
			input:  "123456789",
			want:   scanResult{data: "123456789", matches: 0},
		},
		{
			name:   "unmatched lookbehind flushed at end",
			needle: "ab",
			input:  "12a45678a",
			want:   scanResult{data: "12a45678a", matches: 0},
		},
		{
			name:   "match at start",
			needle: "hello",
			input:  "hello world",
			want:   scanResult{data: " world", matches: 1},
		},
		{
			name:   "CRLF-delimited boundary straddling a bare CR",
			needle: "\r\n--boundary\r\n",
			input:  "some binary data\r\n--boundary\rnot really\r\nmore binary data\r\n--boundary\r\n",
			want:   scanResult{data: "some binary data\r\n--boundary\rnot really\r\nmore binary data", matches: 1},
		},
	}

	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			for _, size := range []int{1, 3, len(v.input)} {
				got := scanChunked(v.needle, v.input, size)
				if got != v.want {
					t.Errorf("chunk size %d: got %+v, want %+v", size, got, v.want)
				}
			}
		})
	}
}
