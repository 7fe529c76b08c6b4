// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// ttsAPIBase is the translate speech endpoint. Tests override it.
var ttsAPIBase = "https://translate.google.com/translate_tts"

// maxChunkChars is the longest text the endpoint accepts per request.
const maxChunkChars = 100

// GoogleTTS speaks text through the public translate speech endpoint. Long
// text is split into chunks whose MP3 frames are concatenated.
type GoogleTTS struct {
	client *httputil.Client
}

// NewGoogleTTS returns an engine using cfg's HTTP settings.
func NewGoogleTTS(cfg types.AudioConfig) *GoogleTTS {
	return &GoogleTTS{client: httputil.New(cfg.HTTPConfig)}
}

// Name identifies the engine.
func (g *GoogleTTS) Name() string { return "google-translate-tts" }

// Synthesize writes MP3 audio for text to w.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string, slow bool, w io.Writer) error {
	chunks := Chunks(text, maxChunkChars)
	if len(chunks) == 0 {
		return fmt.Errorf("no speakable text")
	}
	speed := "1"
	if slow {
		speed = "0.3"
	}
	for i, c := range chunks {
		if err := g.fetch(ctx, c, lang, speed, i, len(chunks), w); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (g *GoogleTTS) fetch(ctx context.Context, text, lang, speed string, idx, total int, w io.Writer) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", lang)
	params.Set("client", "tw-ob")
	params.Set("ttsspeed", speed)
	params.Set("idx", strconv.Itoa(idx))
	params.Set("total", strconv.Itoa(total))
	params.Set("textlen", strconv.Itoa(len([]rune(text))))

	resp, err := g.client.Get(ctx, ttsAPIBase+"?"+params.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech endpoint returned status %d", resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("reading audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("speech endpoint returned no audio")
	}
	return nil
}

// Chunks splits text into pieces of at most max runes, preferring sentence
// and then word boundaries.
func Chunks(text string, max int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, word := range strings.Fields(text) {
		r := []rune(word)
		for len(r) > max {
			flush()
			out = append(out, string(r[:max]))
			r = r[max:]
		}
		wl := len(r)
		if curLen > 0 && curLen+1+wl > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(string(r))
		curLen += wl
		if strings.ContainsAny(string(r[len(r)-1:]), ".!?;") && curLen > max/2 {
			flush()
		}
	}
	flush()
	return out
}
