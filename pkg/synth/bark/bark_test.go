package bark_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/synth"
	"github.com/voxtools/gobark/pkg/synth/bark"
)

func wavBytes(t *testing.T, pcm []int16, rate int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := audio.Encode(&buf, pcm, rate); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	return buf.Bytes()
}

func TestSynthesize(t *testing.T) {
	t.Parallel()
	want := []int16{0, 1000, -1000, 500}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req struct {
			Text          string `json:"text"`
			HistoryPrompt string `json:"history_prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "hello" || req.HistoryPrompt != "v2/en_speaker_6" {
			t.Errorf("request body = %+v", req)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavBytes(t, want, synth.SampleRate))
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := s.Synthesize(context.Background(), "hello", "v2/en_speaker_6")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSynthesize_InvalidPreset(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown history prompt", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = s.Synthesize(context.Background(), "hello", "no/such_speaker")
	if !errors.Is(err, synth.ErrInvalidPreset) {
		t.Errorf("error = %v, want ErrInvalidPreset", err)
	}
}

func TestSynthesize_ServerErrorWithoutPreset(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = s.Synthesize(context.Background(), "hello", "")
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if errors.Is(err, synth.ErrInvalidPreset) {
		t.Errorf("server failure must not be ErrInvalidPreset: %v", err)
	}
}

func TestSynthesize_ResamplesForeignRate(t *testing.T) {
	t.Parallel()
	// A one-second clip at 12 kHz must come back as roughly one second at
	// the synthesis rate.
	pcm := make([]int16, 12000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wavBytes(t, pcm, 12000))
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := s.Synthesize(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(got) < synth.SampleRate*9/10 || len(got) > synth.SampleRate*11/10 {
		t.Errorf("resampled length = %d, want about %d", len(got), synth.SampleRate)
	}
}

func TestSynthesize_UndecodableResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not audio"))
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = s.Synthesize(context.Background(), "hello", "")
	if !errors.Is(err, audio.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/presets" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string][]string{
			"presets": {"v2/en_speaker_0", "v2/en_speaker_1"},
		})
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := s.Presets(context.Background())
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	want := []string{"v2/en_speaker_0", "v2/en_speaker_1"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("presets = %v, want %v", got, want)
	}
}

func TestWarmup(t *testing.T) {
	t.Parallel()
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/warmup" {
			http.NotFound(w, r)
			return
		}
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := bark.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Warmup(context.Background()); err != nil {
		t.Fatalf("warmup: %v", err)
	}
	if hits != 1 {
		t.Errorf("warmup hits = %d, want 1", hits)
	}
}

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()
	if _, err := bark.New(""); err == nil {
		t.Error("expected error for empty server URL")
	}
}
