// Package platforms registers every supported data download package platform.
package platforms

import (
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/platforms/chatgpt"
	"github.com/ubuntu/ddp-insights/internal/platforms/facebook"
	"github.com/ubuntu/ddp-insights/internal/platforms/instagram"
	"github.com/ubuntu/ddp-insights/internal/platforms/linkedin"
	"github.com/ubuntu/ddp-insights/internal/platforms/netflix"
	"github.com/ubuntu/ddp-insights/internal/platforms/tiktok"
	"github.com/ubuntu/ddp-insights/internal/platforms/whatsapp"
	"github.com/ubuntu/ddp-insights/internal/platforms/x"
	"github.com/ubuntu/ddp-insights/internal/platforms/youtube"
	"github.com/ubuntu/ddp-insights/internal/platforms/zipcontents"
)

// Default returns a registry of every supported platform.
func Default() *extract.Registry {
	return extract.NewRegistry(
		chatgpt.New(),
		facebook.New(),
		instagram.New(),
		linkedin.New(),
		netflix.New(),
		tiktok.New(),
		whatsapp.New(),
		x.New(),
		youtube.New(),
		zipcontents.New(),
	)
}
