package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docbrief/client"
)

func main() {
	godotenv.Load()

	var baseURL string
	var statePath string

	rootCmd := &cobra.Command{
		Use:   "docbrief-cli",
		Short: "command line client for the docbrief service",
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("DOCBRIEF_BASE_URL", "http://localhost:8080"), "server base url")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", defaultStatePath(), "path to the session state file")

	newClient := func() (*client.Client, error) {
		storage, err := client.NewFileStorage(statePath)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return client.New(baseURL, storage)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "signup <name> <email> <password>",
		Short: "create an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.Signup(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Printf("%s (id %s)\n", result.Message, result.User.CustomID)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "login <email> <password>",
		Short: "log in and store the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Login(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Logged in")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "log out and clear the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Logout(context.Background()); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "profile",
		Short: "show the logged-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			profile, err := c.GetProfile(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (%s), since %s\n", profile.Name, profile.Email, profile.CustomID, profile.CreatedAt)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "dash",
		Short: "show dashboard stats and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			stats, err := c.GetDashboard(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("uploads: %d, summaries: %d, free trials: %d\n",
				stats.FilesUploaded, stats.TotalSummaries, stats.FreeTrialsLeft)
			for _, item := range stats.History {
				when := ""
				if item.UploadedAt != nil {
					when = time.UnixMilli(*item.UploadedAt).Local().Format("2006-01-02 15:04")
				}
				fmt.Printf("  %-17s %s\n", when, item.Filename)
			}
			return nil
		},
	})

	var outDir string
	summarizeCmd := &cobra.Command{
		Use:   "summarize <file.pdf>",
		Short: "upload a PDF and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c.Track(context.Background(), "FILE_UPLOAD_STARTED", map[string]interface{}{"filename": filepath.Base(args[0])})
			result, err := c.SummarizePDF(context.Background(), args[0], data)
			if err != nil {
				return err
			}
			if result.Rejected() {
				fmt.Println(result.Message)
				return nil
			}
			fmt.Println(result.Summary)
			if result.ImageBase64 != nil {
				saveArtifact(outDir, args[0], ".png", *result.ImageBase64)
			}
			if result.VideoBase64 != nil {
				saveArtifact(outDir, args[0], ".mp4", *result.VideoBase64)
			}
			fmt.Printf("free trials left: %d\n", c.FreeTrialsLeft())
			return nil
		},
	}
	summarizeCmd.Flags().StringVar(&outDir, "out", "", "directory to write generated artifacts into")
	rootCmd.AddCommand(summarizeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// saveArtifact decodes a data URI and writes it next to the input file,
// or into dir when --out is set.
func saveArtifact(dir, input, ext, dataURI string) {
	payload := dataURI
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, "decode artifact:", err)
		return
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	target := base + ext
	if dir != "" {
		target = filepath.Join(dir, target)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "write artifact:", err)
		return
	}
	fmt.Println("wrote", target)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docbrief.json"
	}
	return filepath.Join(home, ".docbrief", "state.json")
}
