package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/genai"

	"chartwatch/hub"
	"chartwatch/store"
)

func openStore(dataDir string) *store.Store {
	dir := dataDir
	if dir == "" {
		var err error
		dir, err = store.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	s, err := store.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return s
}

func newGenaiClient(ctx context.Context) *genai.Client {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY not set")
		os.Exit(1)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return client
}

func runCommand(cmd string, args []string) {
	switch cmd {
	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		dataFlag := fs.String("data", "", "data directory")
		fs.Parse(args)
		if fs.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: chartwatch signup <name> <phone>")
			os.Exit(1)
		}
		s := openStore(*dataFlag)
		u, err := s.Signup(fs.Arg(0), fs.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Signed up %s (%s). Trial runs until %s.\n",
			u.Name, u.Phone,
			time.UnixMilli(u.SignupDate).Add(store.TrialPeriod).Format("2006-01-02"))

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		dataFlag := fs.String("data", "", "data directory")
		fs.Parse(args)
		if fs.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: chartwatch login <phone> <pin>")
			os.Exit(1)
		}
		s := openStore(*dataFlag)
		u, err := s.Login(fs.Arg(0), fs.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Welcome back, %s.\n", u.Name)

	case "logout":
		fs := flag.NewFlagSet("logout", flag.ExitOnError)
		dataFlag := fs.String("data", "", "data directory")
		fs.Parse(args)
		openStore(*dataFlag).ClearCurrentUser()
		fmt.Println("Logged out.")

	case "subscribe":
		fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
		dataFlag := fs.String("data", "", "data directory")
		fs.Parse(args)
		s := openStore(*dataFlag)
		cur, ok := s.CurrentUser()
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: not signed in")
			os.Exit(1)
		}
		// Payment collection happens out of band; this records the result.
		u, err := s.Subscribe(cur.Phone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Subscription active for %s.\n", u.Phone)

	case "users":
		fs := flag.NewFlagSet("users", flag.ExitOnError)
		dataFlag := fs.String("data", "", "data directory")
		fs.Parse(args)
		s := openStore(*dataFlag)
		cur, ok := s.CurrentUser()
		if !ok || !cur.IsAdmin {
			fmt.Fprintln(os.Stderr, "Error: admin login required")
			os.Exit(1)
		}
		for _, u := range s.Users() {
			status := "trial"
			if u.IsSubscribed {
				status = "subscribed"
			}
			if store.TrialExpired(u, time.Now()) {
				status = "expired"
			}
			fmt.Printf("%-12s %-20s %-10s signed up %s\n",
				u.Phone, u.Name, status,
				time.UnixMilli(u.SignupDate).Format("2006-01-02"))
		}

	case "config":
		fs := flag.NewFlagSet("config", flag.ExitOnError)
		dataFlag := fs.String("data", "", "data directory")
		fpsFlag := fs.Float64("fps", 0, "scan frequency in frames per second")
		confFlag := fs.Int("minconf", 0, "minimum confidence percentage")
		alarmFlag := fs.String("alarm", "", "alarm enabled: on or off")
		fs.Parse(args)
		s := openStore(*dataFlag)
		cfg := s.Config()
		changed := false
		if *fpsFlag > 0 {
			cfg.ScanFrequency = *fpsFlag
			changed = true
		}
		if *confFlag > 0 {
			cfg.MinConfidence = *confFlag
			changed = true
		}
		switch *alarmFlag {
		case "on":
			cfg.AlarmEnabled = true
			changed = true
		case "off":
			cfg.AlarmEnabled = false
			changed = true
		}
		if changed {
			if err := s.SetConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Printf("scanFrequency %.1f  minConfidence %d  alarm %v\n",
			cfg.ScanFrequency, cfg.MinConfidence, cfg.AlarmEnabled)

	case "ask":
		fs := flag.NewFlagSet("ask", flag.ExitOnError)
		groundedFlag := fs.Bool("grounded", false, "ground the answer in web search")
		thinkingFlag := fs.Bool("thinking", false, "enable extended reasoning budget")
		fs.Parse(args)
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Usage: chartwatch ask [-grounded] [-thinking] <prompt>")
			os.Exit(1)
		}
		ctx := context.Background()
		h := hub.New(newGenaiClient(ctx), hub.DefaultModels())
		ans, err := h.Ask(ctx, joinArgs(fs.Args()), *groundedFlag, *thinkingFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ans.Text)
		if len(ans.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, src := range ans.Sources {
				fmt.Printf("  %s — %s\n", src.Title, src.URI)
			}
		}

	case "image":
		fs := flag.NewFlagSet("image", flag.ExitOnError)
		sizeFlag := fs.String("size", "1K", "image size: 1K, 2K or 4K")
		outFlag := fs.String("o", "chartwatch.png", "output file")
		fs.Parse(args)
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Usage: chartwatch image [-size 1K] [-o out.png] <prompt>")
			os.Exit(1)
		}
		ctx := context.Background()
		h := hub.New(newGenaiClient(ctx), hub.DefaultModels())
		data, err := h.GenerateImage(ctx, joinArgs(fs.Args()), *sizeFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outFlag, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", *outFlag, len(data))

	case "video":
		fs := flag.NewFlagSet("video", flag.ExitOnError)
		seedFlag := fs.String("seed", "", "seed image file")
		outFlag := fs.String("o", "chartwatch.mp4", "output file")
		fs.Parse(args)
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Usage: chartwatch video [-seed frame.jpg] [-o out.mp4] <prompt>")
			os.Exit(1)
		}
		var seed *genai.Image
		if *seedFlag != "" {
			data, err := os.ReadFile(*seedFlag)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			seed = &genai.Image{ImageBytes: data, MIMEType: mimeForExt(*seedFlag)}
		}
		ctx := context.Background()
		h := hub.New(newGenaiClient(ctx), hub.DefaultModels())
		fmt.Println("Generating video... this can take minutes.")
		data, err := h.GenerateVideo(ctx, joinArgs(fs.Args()), seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outFlag, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", *outFlag, len(data))

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", cmd)
		fmt.Fprintln(os.Stderr, "Commands: signup login logout subscribe users config ask image video")
		os.Exit(1)
	}
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

func mimeForExt(path string) string {
	switch filepath.Ext(path) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
