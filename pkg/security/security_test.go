package security

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResumePolicy_Validate(t *testing.T) {
	policy := ResumePolicy(1 << 20)
	pdf := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 64)...)

	tests := []struct {
		name     string
		filename string
		data     []byte
		valid    bool
		errPart  string
	}{
		{"pdf ok", "cv.PDF", pdf, true, ""},
		{"empty", "cv.pdf", nil, false, "empty"},
		{"no extension", "cv", pdf, false, "no extension"},
		{"wrong extension", "cv.exe", pdf, false, "only .doc, .docx, .pdf"},
		{"magic mismatch", "cv.pdf", []byte("MZ\x90\x00 not a pdf"), false, "does not match"},
		{"too large", "cv.pdf", append([]byte("%PDF"), make([]byte, 1<<20)...), false, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := policy.Validate(tt.filename, tt.data)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.errPart != "" {
				assert.Contains(t, res.Error, tt.errPart)
			}
		})
	}

	res := policy.Validate("cv.pdf", pdf)
	assert.Equal(t, "application/pdf", res.ContentType())
}

func TestImagePolicy_Validate(t *testing.T) {
	policy := ImagePolicy(1 << 20)
	res := policy.Validate("logo.png", pngBytes(t, 4, 4))
	require.True(t, res.Valid, res.Error)
	assert.Equal(t, "image/png", res.ContentType())

	res = policy.Validate("logo.jpg", pngBytes(t, 4, 4))
	assert.False(t, res.Valid)
}

func TestNormalizeImage_Downscales(t *testing.T) {
	out, err := NormalizeImage(pngBytes(t, 1024, 256), 512, 85)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())

	out, err = NormalizeImage(pngBytes(t, 20, 10), 512, 85)
	require.NoError(t, err)
	img, _, err = image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, err = NormalizeImage([]byte("garbage"), 512, 85)
	assert.Error(t, err)
}

func TestSanitizer_Text(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, "Hello world", s.Text("<b>Hello</b> <script>alert(1)</script>world"))
	assert.Equal(t, "R&D team", s.Text("  R&D team "))
}

func TestUploadLimiter_NoRedisAllows(t *testing.T) {
	ul := NewUploadLimiter(nil, 0, 0)
	assert.Equal(t, 10, ul.maxPerMinute)
	assert.Equal(t, 50, ul.maxPerDay)
	ok, retry, err := ul.AllowUpload(context.Background(), "acc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retry)
}

func TestLoginTracker_NoRedis(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tracker := NewLoginTracker(nil, DefaultLoginTrackerConfig(), NewSecurityLoggerWith(zap.New(core), "test", "test"))
	ctx := context.Background()

	blocked, err := tracker.IsBlocked(ctx, "a@b.com", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)

	blocked, count, err := tracker.RecordFailedAttempt(ctx, "a@b.com", RequestMeta{IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Zero(t, count)
	assert.Equal(t, 1, logs.FilterMessage(string(EventLoginFailed)).Len())

	assert.NoError(t, tracker.ClearAttempts(ctx, "a@b.com", "1.2.3.4"))
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLoginTracker_BlocksEmailAtLimit(t *testing.T) {
	mr, client := newRedis(t)
	core, logs := observer.New(zap.InfoLevel)
	cfg := DefaultLoginTrackerConfig()
	cfg.MaxAttempts = 3
	tracker := NewLoginTracker(client, cfg, NewSecurityLoggerWith(zap.New(core), "test", "test"))
	ctx := context.Background()
	meta := RequestMeta{IP: "203.0.113.9"}

	for i := 1; i < 3; i++ {
		blocked, count, err := tracker.RecordFailedAttempt(ctx, "Asha@Example.com", meta)
		require.NoError(t, err)
		assert.False(t, blocked)
		assert.Equal(t, i, count)
	}
	blocked, count, err := tracker.RecordFailedAttempt(ctx, "asha@example.com", meta)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, 3, count)
	assert.True(t, mr.Exists(blockedLoginUserPrefix+"asha@example.com"))
	assert.False(t, mr.Exists(blockedLoginIPPrefix+meta.IP), "the IP is below its own limit")
	assert.Equal(t, 1, logs.FilterMessage(string(EventBlockCreated)).Len())

	blocked, err = tracker.IsBlocked(ctx, "ASHA@example.com", "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = tracker.IsBlocked(ctx, "other@example.com", meta.IP)
	require.NoError(t, err)
	assert.False(t, blocked)

	mr.FastForward(cfg.BlockDuration + time.Second)
	blocked, err = tracker.IsBlocked(ctx, "asha@example.com", meta.IP)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginTracker_BlocksIPAcrossEmails(t *testing.T) {
	mr, client := newRedis(t)
	cfg := DefaultLoginTrackerConfig()
	cfg.MaxAttempts = 10
	cfg.MaxIPAttempts = 4
	tracker := NewLoginTracker(client, cfg, nil)
	ctx := context.Background()
	meta := RequestMeta{IP: "203.0.113.20"}

	var blocked bool
	for i := 0; i < 4; i++ {
		var err error
		blocked, _, err = tracker.RecordFailedAttempt(ctx, fmt.Sprintf("user%d@example.com", i), meta)
		require.NoError(t, err)
		if i < 3 {
			assert.False(t, blocked, "attempt %d", i)
		}
	}
	assert.True(t, blocked)
	assert.True(t, mr.Exists(blockedLoginIPPrefix+meta.IP))

	blocked, err := tracker.IsBlocked(ctx, "fresh@example.com", meta.IP)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = tracker.IsBlocked(ctx, "fresh@example.com", "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginTracker_ClearAttempts(t *testing.T) {
	mr, client := newRedis(t)
	tracker := NewLoginTracker(client, DefaultLoginTrackerConfig(), nil)
	ctx := context.Background()
	meta := RequestMeta{IP: "203.0.113.30"}

	_, _, err := tracker.RecordFailedAttempt(ctx, "a@b.com", meta)
	require.NoError(t, err)
	assert.True(t, mr.Exists(failLoginUserPrefix+"a@b.com"))
	assert.True(t, mr.Exists(failLoginIPPrefix+meta.IP))

	require.NoError(t, tracker.ClearAttempts(ctx, "a@b.com", meta.IP))
	assert.False(t, mr.Exists(failLoginUserPrefix+"a@b.com"))
	assert.False(t, mr.Exists(failLoginIPPrefix+meta.IP))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("john@example.com"))
}

func TestSecurityLogger_SeverityDrivesLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sl := NewSecurityLoggerWith(zap.New(core), "test", "test")

	var (
		mu        sync.Mutex
		persisted = map[EventType]Severity{}
	)
	sl.SetPersistFunc(func(_ context.Context, event SecurityEvent) error {
		mu.Lock()
		persisted[event.Event] = event.Severity
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	sl.LogAccountEvent(ctx, EventRoleAssigned, "acc", RequestMeta{}, nil)
	sl.LogLoginBlocked(ctx, "a@b.com", RequestMeta{IP: "1.2.3.4"})
	require.NoError(t, sl.Close())

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, string(SeverityINFO), entries[0].ContextMap()["severity"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, string(SeverityHIGH), entries[1].ContextMap()["severity"])

	// Close waits for pending writes.
	assert.Equal(t, map[EventType]Severity{
		EventRoleAssigned: SeverityINFO,
		EventLoginBlocked: SeverityHIGH,
	}, persisted)
	assert.True(t, IsHighOrAbove(EventBlockCreated))
	assert.Equal(t, SeverityMEDIUM, GetSeverity(EventType("unmapped")))
}
