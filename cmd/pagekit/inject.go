package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pagekit/dom"
	"pagekit/enhance"
	"pagekit/storage"
)

func newInjectCmd() *cobra.Command {
	var (
		pagePath       string
		printChecklist bool
		verbose        bool
	)
	cmd := &cobra.Command{
		Use:   "inject <file-or-url>",
		Short: "Enhance one page and print the resulting HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			body, derived, err := readSource(src)
			if err != nil {
				return err
			}
			defer body.Close()
			if pagePath == "" {
				pagePath = derived
			}
			doc, err := dom.Parse(body, pagePath)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", src, err)
			}

			logger := log.New(io.Discard, "", 0)
			if verbose {
				logger = log.New(cmd.ErrOrStderr(), "", log.Lmicroseconds)
			}
			out := cmd.OutOrStdout()
			e := enhance.New(enhance.Options{
				Site:    enhance.DefaultSiteInfo(),
				Storage: enhance.NewStorage(storage.NewMemory(), logger),
				Logger:  logger,
			})
			env := enhance.Env{
				Now: time.Now,
				Print: func(done func()) {
					defer done()
					if err := doc.Render(out); err != nil {
						logger.Printf("render: %v", err)
					}
				},
			}
			e.Ready(doc, env)
			if printChecklist {
				if e.PrintChecklist(doc, env) == nil {
					logger.Printf("no checklist on %s; printed the page as is", pagePath)
				}
				return nil
			}
			return doc.Render(out)
		},
	}
	cmd.Flags().StringVar(&pagePath, "path", "", "page path used for scoping (default: derived from the source)")
	cmd.Flags().BoolVar(&printChecklist, "print-checklist", false, "emit the document as it looks while the checklist prints")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine diagnostics to stderr")
	return cmd
}

// readSource opens a local file or fetches a URL and returns the page path
// it implies.
func readSource(src string) (io.ReadCloser, string, error) {
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequest(http.MethodGet, src, nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("User-Agent", "pagekit-inject/1.0")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetching %s: %w", src, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, "", fmt.Errorf("fetching %s: %s", src, resp.Status)
		}
		p := u.Path
		if p == "" {
			p = "/"
		}
		return resp.Body, p, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", src, err)
	}
	return f, "/" + strings.TrimPrefix(filepath.ToSlash(filepath.Base(src)), "/"), nil
}
