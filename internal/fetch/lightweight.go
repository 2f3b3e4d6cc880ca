package fetch

import (
	"context"
	"net/http"

	"github.com/gocolly/colly"
)

// fetchLightweight is the cheap tier: a plain GET with a realistic desktop
// browser header set. Bot-protected platforms answer it with a challenge
// page, which the caller detects and escalates on.
func (s *Session) fetchLightweight(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector()
	c.WithTransport(s.transport)
	c.SetRequestTimeout(s.cfg.FetcherSettings.LightweightTimeout)
	c.UserAgent = s.cfg.WorkerSettings.UserAgent

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,"+
			"image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Cache-Control", "max-age=0")
		r.Headers.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
		r.Headers.Set("Sec-Ch-Ua-Mobile", "?0")
		r.Headers.Set("Sec-Ch-Ua-Platform", `"Windows"`)
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	var html string
	c.OnResponse(func(resp *colly.Response) {
		html = string(resp.Body)
	})
	c.OnError(func(resp *colly.Response, err error) {
		// A 403 body is usually the challenge page itself; keep it so the
		// blocked-response detector sees the markers.
		if resp != nil && resp.StatusCode == http.StatusForbidden && len(resp.Body) > 0 {
			html = string(resp.Body)
		}
	})

	err := c.Visit(url)
	if html != "" {
		return html, nil
	}
	if err != nil {
		return "", err
	}
	return "", ErrUnavailable
}
