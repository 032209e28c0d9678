package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/star2video/internal/analyzer"
	"github.com/ivlev/star2video/internal/config"
	"github.com/ivlev/star2video/internal/engine"
	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/system"
	"github.com/ivlev/star2video/internal/video"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// Создаем нужные директории, если их нет
	dirs := []string{"input/stars", "input/starless", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	starsPtr := flag.String("stars", "", "Снимок со звездами (по умолчанию: самый свежий файл в input/stars/)")
	starlessPtr := flag.String("starless", "", "Тот же кадр без звезд (по умолчанию: самый свежий файл в input/starless/)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	settingsPtr := flag.String("settings", "", "YAML-файл с настройками анимации (флаги ниже имеют приоритет)")
	saveSettingsPtr := flag.String("save-settings", "", "Сохранить итоговые настройки анимации в YAML и продолжить")
	fpsPtr := flag.Int("fps", config.DefaultFPS, "FPS")
	maxEdgePtr := flag.Int("max-edge", config.DefaultMaxLongEdge, "Максимальная длинная сторона кадра в пикселях")
	presetPtr := flag.String("preset", "", "Пресет качества: draft, hd, 4k")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	detectorPtr := flag.String("detector", "flood", "Детектор звезд: flood, clean")

	motionPtr := flag.String("motion", string(config.ZoomIn), "Движение: zoom_in, zoom_out, pan_left, ..., zoom_in_pan_up_right")
	speedPtr := flag.Float64("speed", 1, "Скорость движения (0.1-5)")
	durationPtr := flag.Float64("duration", 10, "Длительность анимации в секундах (1-120)")
	ampPtr := flag.Float64("amp", 100, "Амплитуда движения в процентах (0-300)")
	spinPtr := flag.Float64("spin", 0, "Поворот за всю анимацию в градусах (0-360)")
	spinDirPtr := flag.String("spin-dir", string(config.Clockwise), "Направление поворота: clockwise, counterclockwise")
	depthPtr := flag.Float64("depth", 50, "Сила параллакса (0-100)")
	fadePtr := flag.Bool("fade", false, "Затухание звезд в конце")
	hyperPtr := flag.Bool("hyperspeed", false, "Эффект гиперпрыжка (шлейфы, хроматика, воронка, виньетка)")
	layersPtr := flag.Int("layers", 12, "Количество слоев глубины (1-32)")
	preservePtr := flag.Float64("preservation", 50, "Сохранение звезд (0-100): больше - больше слабых звезд")
	cleanPtr := flag.Bool("clean", false, "Очистка ядер звезд перед сегментацией")

	stillPtr := flag.Float64("still", -1, "Сохранить один кадр на указанном прогрессе (0-100) вместо видео")
	stillOutPtr := flag.String("still-out", "", "Путь к PNG для -still")
	previewPtr := flag.Bool("preview", false, "Проиграть анимацию в реальном времени без кодирования")
	debugPtr := flag.String("debug", "", "Папка для отладочных слоев и гистограммы размеров")
	creditPtr := flag.String("credit", "", "URL автора: QR-код в правом нижнем углу видео")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	versionPtr := flag.Bool("version", false, "Показать версию")

	flag.Parse()

	if *versionPtr {
		fmt.Println("star2video", Version)
		return
	}

	// Настройки анимации: значения по умолчанию, затем YAML, затем явные флаги
	settings := config.Defaults()
	if *settingsPtr != "" {
		loaded, err := config.LoadSettings(*settingsPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения настроек: %v", err)
		}
		settings = loaded
		fmt.Printf("[*] Используются настройки: %s\n", *settingsPtr)
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "motion":
			m, err := config.ParseMotionType(*motionPtr)
			if err != nil {
				flagErr = err
			}
			settings.MotionType = m
		case "speed":
			settings.Speed = *speedPtr
		case "duration":
			settings.Duration = *durationPtr
		case "amp":
			settings.Amplification = *ampPtr
		case "spin":
			settings.SpinDegrees = *spinPtr
		case "spin-dir":
			settings.SpinDirection = config.SpinDirection(strings.ToLower(*spinDirPtr))
		case "depth":
			settings.DepthIntensity = *depthPtr
		case "fade":
			settings.FadeOut = *fadePtr
		case "hyperspeed":
			settings.Hyperspeed = *hyperPtr
		case "layers":
			settings.LayerCount = *layersPtr
		case "preservation":
			settings.PreservationIntensity = *preservePtr
		case "clean":
			settings.CleanCore = *cleanPtr
		}
	})
	if flagErr != nil {
		log.Fatalf("[-] Ошибка: %v", flagErr)
	}
	settings = settings.Clamp()
	if err := settings.Validate(); err != nil {
		log.Fatalf("[-] Некорректные настройки: %v", err)
	}

	if *saveSettingsPtr != "" {
		if err := config.WriteSettings(settings, *saveSettingsPtr); err != nil {
			log.Printf("[!] Не удалось сохранить настройки: %v", err)
		} else {
			fmt.Printf("[*] Настройки сохранены: %s\n", *saveSettingsPtr)
		}
	}

	fps, maxEdge := *fpsPtr, *maxEdgePtr
	switch *presetPtr {
	case "draft":
		fps, maxEdge = 24, 1280
	case "hd":
		maxEdge = 1920
	case "4k":
		maxEdge = 3840
	case "":
	default:
		log.Fatalf("[-] Неизвестный пресет: %s", *presetPtr)
	}

	starsPath := resolveInput(*starsPtr, "input/stars")
	starlessPath := resolveInput(*starlessPtr, "input/starless")

	finalOutput := *outputPtr
	if finalOutput == "" {
		baseName := filepath.Base(starsPath)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join("output", fmt.Sprintf("%s_%s_%s.mp4", cleanName, settings.MotionType, timestamp))
	}

	encoderName := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	quality := *qualityPtr
	if quality == 0 {
		quality = video.DefaultQuality(encoderName)
	}

	variant := *detectorPtr
	if settings.CleanCore {
		variant = "clean"
	}
	det, err := analyzer.NewDetector(variant, settings.PreservationIntensity)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	cfg := &config.Config{
		StarsPath:      starsPath,
		BackgroundPath: starlessPath,
		OutputVideo:    finalOutput,
		SettingsPath:   *settingsPtr,
		FPS:            fps,
		MaxLongEdge:    maxEdge,
		VideoEncoder:   encoderName,
		Quality:        quality,
		Preset:         *presetPtr,
		Detector:       variant,
		StillAt:        *stillPtr,
		StillPath:      *stillOutPtr,
		Preview:        *previewPtr,
		DebugDir:       *debugPtr,
		CreditURL:      *creditPtr,
		ShowStats:      *statsPtr,
		BuildVersion:   Version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	project := engine.NewProject(cfg, settings, &video.FFmpegEncoder{}, det)
	defer project.Close()

	if err := project.Load(ctx); err != nil {
		if fault.IsInput(err) {
			log.Fatalf("[-] Некорректные входные данные: %v", err)
		}
		log.Fatalf("[-] Ошибка построения слоев: %v", err)
	}

	switch {
	case cfg.StillAt >= 0:
		path := cfg.StillPath
		if path == "" {
			path = strings.TrimSuffix(cfg.OutputVideo, filepath.Ext(cfg.OutputVideo)) + fmt.Sprintf("_%03.0f.png", cfg.StillAt)
		}
		if err := project.Still(cfg.StillAt, path); err != nil {
			log.Fatalf("[-] Ошибка рендера кадра: %v", err)
		}
		fmt.Printf("[+++] Успех! Кадр: %s\n", path)

	case cfg.Preview:
		var last *image.RGBA
		err := project.Preview(ctx, func(frame *image.RGBA, progress float64) {
			last = frame
			fmt.Printf("\r[*] Просмотр: %5.1f%%", progress)
		})
		fmt.Println()
		if err != nil && ctx.Err() == nil {
			log.Fatalf("[-] Ошибка просмотра: %v", err)
		}
		if last != nil {
			path := strings.TrimSuffix(cfg.OutputVideo, filepath.Ext(cfg.OutputVideo)) + "_preview.png"
			if err := savePNG(project.Renderer.Snapshot(), path); err != nil {
				log.Printf("[!] Не удалось сохранить последний кадр: %v", err)
			} else {
				fmt.Printf("[*] Последний кадр: %s\n", path)
			}
		}

	default:
		if err := project.ExportFile(ctx, cfg.OutputVideo); err != nil {
			if fault.IsEncoding(err) {
				log.Fatalf("[-] Ошибка кодирования: %v", err)
			}
			log.Fatalf("[-] Ошибка проекта: %v", err)
		}
		fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	}
}

// resolveInput returns explicit, or the newest image in dir.
func resolveInput(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	latest, err := system.FindLatestImage(dir)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v. Положите изображение в %s/", err, dir)
	}
	fmt.Printf("[*] Выбран файл: %s\n", latest)
	return latest
}

func savePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
