package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/image/draw"
)

func (r *Router) acceptPhoto(msg *tgbotapi.Message, fileID string) {
	cid := msg.Chat.ID
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	page, err := download(url)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}
	if r.addPage(key, cid, msg.MediaGroupID, page) {
		r.send(cid, "Photo received. If the problem spans several photos, send them together as an album.")
	}
}

// addPage appends page to the open batch for key, starting one if needed,
// and restarts its debounce timer. It reports whether page opened the batch.
func (r *Router) addPage(key string, cid int64, group string, page []byte) bool {
	wait := r.Debounce
	if wait <= 0 {
		wait = debounce
	}
	for {
		bi, _ := r.batches.LoadOrStore(key, &photoBatch{ChatID: cid, Key: key, MediaGroupID: group})
		b := bi.(*photoBatch)

		b.mu.Lock()
		if b.closed {
			// Already handed to processBatch and removed from the map.
			b.mu.Unlock()
			continue
		}
		b.images = append(b.images, page)
		if b.timer != nil {
			b.timer.Stop()
		}
		b.timer = time.AfterFunc(wait, func() { r.processBatch(b) })
		first := len(b.images) == 1
		b.mu.Unlock()
		return first
	}
}

// takeBatch closes b and returns its pages, or nil when b was already taken.
func (r *Router) takeBatch(b *photoBatch) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	r.batches.CompareAndDelete(b.Key, b)
	return b.images
}

func (r *Router) processBatch(b *photoBatch) {
	if pages := r.takeBatch(b); len(pages) > 0 {
		r.processImages(context.Background(), b.ChatID, pages)
	}
}

// processImages stitches the pages, extracts the problem text and replies
// with its template.
func (r *Router) processImages(ctx context.Context, chatID int64, images [][]byte) {
	if len(images) == 0 {
		return
	}
	img := images[0]
	if len(images) > 1 {
		merged, err := stitch(images, maxPixels)
		if err != nil {
			r.SendError(chatID, fmt.Errorf("merge pages: %w", err))
			return
		}
		img = merged
	}

	octx, cancel := context.WithTimeout(ctx, orDefault(r.OCRTimeout))
	text, err := r.Source.Extract(octx, img)
	cancel()
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.templateText(ctx, chatID, text)
}

// stitch stacks album pages top to bottom, each centered on a white sheet
// as wide as the widest page, and returns the result as JPEG. Sheets larger
// than limit pixels are resampled down to fit.
func stitch(pages [][]byte, limit int) ([]byte, error) {
	decoded := make([]image.Image, 0, len(pages))
	var width, height int
	for i, p := range pages {
		img, _, err := image.Decode(bytes.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		decoded = append(decoded, img)
		width = max(width, img.Bounds().Dx())
		height += img.Bounds().Dy()
	}
	if width == 0 || height == 0 {
		return nil, errors.New("empty images")
	}

	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	y := 0
	for _, img := range decoded {
		b := img.Bounds()
		x := (width - b.Dx()) / 2
		draw.Draw(sheet, image.Rect(x, y, x+b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy()
	}

	var out image.Image = sheet
	if w, h := fit(width, height, limit); w != width || h != height {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), sheet, sheet.Bounds(), draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit shrinks w x h, keeping the aspect ratio, until it holds at most limit
// pixels.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || w*h <= limit {
		return w, h
	}
	scale := math.Sqrt(float64(limit) / float64(w*h))
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download page: status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
