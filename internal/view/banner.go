package view

import "golang.org/x/net/html"

// BannerID keys the singleton disconnect banner; at most one element with
// this id exists in a view at any time.
const BannerID = "connection-banner"

const bannerMessage = "Server disconnected — this page will no longer update"

const bannerStyle = "position:fixed;top:0;left:0;right:0;z-index:1000;" +
	"background:#b91c1c;color:#fff;text-align:center;padding:8px 16px;" +
	"font-size:14px"

// ShowBanner inserts the disconnect banner as the first element of the
// document body. Any existing banner is removed first, so overlapping calls
// never double-render.
func ShowBanner(doc *html.Node) *html.Node {
	HideBanner(doc)

	banner := Element("div", "id", BannerID, "style", bannerStyle)
	banner.AppendChild(TextNode(bannerMessage))

	b := body(doc)
	if b.FirstChild != nil {
		b.InsertBefore(banner, b.FirstChild)
	} else {
		b.AppendChild(banner)
	}
	return banner
}

// HideBanner removes the banner if present; hiding an absent banner is a
// no-op.
func HideBanner(doc *html.Node) {
	if banner := FindByID(doc, BannerID); banner != nil {
		Detach(banner)
	}
}

// Banner returns the current banner element, or nil when none is shown.
func Banner(doc *html.Node) *html.Node {
	return FindByID(doc, BannerID)
}
