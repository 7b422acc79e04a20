package cli

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"

	"nufeed/internal/nupkg"
)

// pushCmd represents the push command
var pushCmd = &cobra.Command{
	Use:   "push <archive.nupkg>",
	Short: "Publish a package archive to a feed",
	Long: `Upload a package archive to the current feed (or the one named with
--source). The archive's own manifest decides the package id and version.
Log in first with 'nufeed login'.

Examples:
  nufeed push ./Foo.1.2.0.nupkg
  nufeed push ./Foo.1.2.0.nupkg --source company`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPush(args[0])
	},
}

func runPush(archivePath string) error {
	name, entry, err := feedEntry(sourceName)
	if err != nil {
		return err
	}
	if entry.Token == "" {
		return fmt.Errorf("not logged in to '%s'. Use 'nufeed login %s' first", name, name)
	}

	// Validate locally before shipping bytes
	meta, err := nupkg.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("not a valid package archive: %w", err)
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("package", nupkg.FileName(meta.ID, meta.Version))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	pushURL := strings.TrimRight(os.ExpandEnv(entry.Path), "/") + "/package"
	req, err := retryablehttp.NewRequest("PUT", pushURL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+entry.Token)

	client := retryablehttp.NewClient()
	client.Logger = nil
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push failed: %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}

	fmt.Printf("Pushed %s %s to '%s'\n", meta.ID, meta.Version, name)
	return nil
}
