package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// ImageExtensions: форматы, которые умеет открыть internal/source.
var ImageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp", ".hdr",
	".pdf", ".xps", ".cbz", ".jp2", ".jpx",
}

// IsImageFile reports whether name carries one of ImageExtensions.
func IsImageFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FindLatestImage возвращает самый свежий файл изображения. Если path указывает
// на файл, он возвращается как есть.
func FindLatestImage(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return path, nil
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsImageFile(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(path, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено изображений", path)
	}

	return latestFile, nil
}

// AvailableMemory returns the bytes the OS reports as available for new
// allocations, or 0 when the probe fails.
func AvailableMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		Logf("[!] Не удалось получить сведения о памяти: %v", err)
		return 0
	}
	return vm.Available
}

// CheckMemory fails when need bytes exceed what the OS reports as available.
// An unknown budget (probe failure) is treated as sufficient.
func CheckMemory(need uint64) error {
	avail := AvailableMemory()
	if avail == 0 || need <= avail {
		return nil
	}
	return fmt.Errorf("need %d MiB, available %d MiB", need>>20, avail>>20)
}

var (
	encoderOnce sync.Once
	encoderName string
)

// GetBestH264Encoder выбирает аппаратный H.264 энкодер, если ffmpeg его поддерживает.
// Приоритеты:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// 3. Software (libx264)
func GetBestH264Encoder() string {
	encoderOnce.Do(func() {
		encoderName = "libx264"
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err != nil {
			return
		}
		for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
			if strings.Contains(string(out), enc) {
				encoderName = enc
				return
			}
		}
	})
	return encoderName
}
