package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/spn"
)

type saveFlags struct {
	verbose  bool
	sitemaps []string
	dedupe   bool
	output   string
	opts     spn.Options
}

func newSaveCmd() *cobra.Command {
	f := &saveFlags{}
	cmd := &cobra.Command{
		Use:   "save [URL...]",
		Short: "Save one or more URLs to the Wayback Machine",
		Long: `Save one or more URLs to the Wayback Machine.

URLs are passed as space-separated arguments and may be combined with the
page URLs of one or more sitemaps. URLs that fail without a response are
resubmitted in later passes until they settle or the retry budget runs out.`,
		Example: `  archivooor save https://www.example.com https://www.example.org
  archivooor save --sitemap https://www.example.com/sitemap.xml --output table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print the full normalized response for each URL")
	flags.StringArrayVar(&f.sitemaps, "sitemap", nil, "sitemap file or URL whose pages are submitted (repeatable)")
	flags.BoolVar(&f.dedupe, "dedupe", false, "submit each distinct URL once")
	flags.StringVarP(&f.output, "output", "o", outputText, "output format: text or table")

	flags.BoolVar(&f.opts.CaptureAll, "capture-all", true, "capture pages that return errors")
	flags.BoolVar(&f.opts.CaptureOutlinks, "capture-outlinks", true, "also capture the page's outlinks")
	flags.BoolVar(&f.opts.CaptureScreenshot, "capture-screenshot", true, "store a screenshot of the page")
	flags.BoolVar(&f.opts.ForceGet, "force-get", true, "capture without rendering the page in a browser")
	flags.BoolVar(&f.opts.SkipFirstArchive, "skip-first-archive", true, "skip the check for a first capture")
	flags.BoolVar(&f.opts.OutlinksAvailability, "outlinks-availability", true, "report outlink availability")
	flags.BoolVar(&f.opts.EmailResult, "email-result", false, "email the result to the account owner")
	return cmd
}

func runSave(cmd *cobra.Command, args []string, f *saveFlags) error {
	if len(args) == 0 && len(f.sitemaps) == 0 {
		return cmd.Help()
	}
	if err := validateOutput(f.output); err != nil {
		return err
	}

	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	urls := append([]string(nil), args...)
	for _, loc := range f.sitemaps {
		found, err := appInstance.SitemapURLs(cmd.Context(), loc)
		if err != nil {
			return err
		}
		logger.Info("loaded sitemap", zap.String("sitemap", loc), zap.Int("urls", len(found)))
		urls = append(urls, found...)
	}
	if f.dedupe {
		urls = dedupe(urls)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no urls to save")
	}

	svc, err := appInstance.Archiver(cmd.Context())
	if err != nil {
		return err
	}
	results, err := svc.SavePages(cmd.Context(), urls, f.opts)
	printResults(cmd.OutOrStdout(), results, f.output, f.verbose)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
