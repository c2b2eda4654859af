package source

import (
	"context"
	"fmt"

	"github.com/alexberlino/atp/internal/config"
)

// Loader retrieves the ranking page as table rows.
type Loader interface {
	Load(ctx context.Context, url string) ([][]string, error)
}

// New picks the loader for cfg.Kind.
func New(cfg config.Source) (Loader, error) {
	switch cfg.Kind {
	case config.SourceHTTP:
		return NewHTTPLoader(
			WithUserAgent(cfg.UserAgent),
			WithTimeout(cfg.Timeout),
			WithCloudflareBypass(cfg.CloudflareBypass),
			WithSelector(cfg.TableSelector),
		), nil
	case config.SourceHeadless:
		return NewHeadlessLoader(
			WithRowSelector(cfg.TableSelector),
			WithWaitSelector(cfg.TableSelector),
			WithBrowserUserAgent(cfg.UserAgent),
			WithChromePath(cfg.ChromePath),
			WithSettleDelay(cfg.SettleDelay),
			WithRenderTimeout(cfg.RenderTimeout),
		), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
}
