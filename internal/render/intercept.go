package render

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/logger"
)

type requestAction int

const (
	actionContinue requestAction = iota
	actionServeScript
	actionStubFont
	actionBlock
)

func (a requestAction) String() string {
	switch a {
	case actionServeScript:
		return "serve-local-script"
	case actionStubFont:
		return "stub-font"
	case actionBlock:
		return "block"
	default:
		return "continue"
	}
}

// classifyRequest decides what to do with an outgoing browser request.
func classifyRequest(url string, haveScript, blockExternal bool) requestAction {
	switch {
	case haveScript && strings.Contains(url, "paged") &&
		(strings.Contains(url, "unpkg.com") || strings.Contains(url, "cdn")):
		return actionServeScript
	case strings.Contains(url, "fonts.googleapis.com") || strings.Contains(url, "fonts.gstatic.com"):
		return actionStubFont
	case strings.HasPrefix(url, "file:") || strings.HasPrefix(url, "data:"):
		return actionContinue
	case blockExternal:
		return actionBlock
	default:
		return actionContinue
	}
}

func fontContentType(url string) string {
	if strings.Contains(url, ".woff") {
		return "font/woff2"
	}
	return "text/css"
}

// interceptor answers paused requests on the tab owning ctx
type interceptor struct {
	script        []byte
	blockExternal bool
}

func (ic *interceptor) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(ctx)
			ectx := cdp.WithExecutor(ctx, c.Target)
			if err := ic.handle(ectx, paused); err != nil {
				logger.Debug("[intercept] request handling failed",
					zap.String("url", paused.Request.URL),
					zap.Error(err),
				)
			}
		}()
	})
}

func (ic *interceptor) handle(ctx context.Context, ev *fetch.EventRequestPaused) error {
	url := ev.Request.URL
	action := classifyRequest(url, len(ic.script) > 0, ic.blockExternal)
	if action != actionContinue {
		logger.Debug("[intercept] "+action.String(), zap.String("url", url))
	}

	switch action {
	case actionServeScript:
		return fetch.FulfillRequest(ev.RequestID, 200).
			WithResponseHeaders([]*fetch.HeaderEntry{
				{Name: "Content-Type", Value: "application/javascript"},
			}).
			WithBody(base64.StdEncoding.EncodeToString(ic.script)).
			Do(ctx)
	case actionStubFont:
		return fetch.FulfillRequest(ev.RequestID, 200).
			WithResponseHeaders([]*fetch.HeaderEntry{
				{Name: "Access-Control-Allow-Origin", Value: "*"},
				{Name: "Content-Type", Value: fontContentType(url)},
			}).
			WithBody("").
			Do(ctx)
	case actionBlock:
		return fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(ctx)
	default:
		return fetch.ContinueRequest(ev.RequestID).Do(ctx)
	}
}
