package match

import (
	"regexp"
	"strconv"
	"strings"
)

// tagRule maps any of a set of raw-title substrings to a tier + label.
// Rules are evaluated in order; the first hit wins.
type tagRule struct {
	needles []string
	tier    int
	label   string
}

// Quality tiers rank encode resolution. The default bucket sits between 480p
// and 720p: an untagged IPTV entry is usually an HD-ish transport stream.
var qualityRules = []tagRule{
	{[]string{"4k", "2160p", "uhd"}, 8, "4K"},
	{[]string{"1080p", "fhd"}, 6, "1080p"},
	{[]string{"720p", "hd"}, 4, "720p"},
	{[]string{"480p", "sd"}, 2, "480p"},
}

const (
	defaultQualityTier  = 3
	defaultQualityLabel = "HD"
)

// Source tiers rank provenance; BluRay rips beat WEB rips beat TV captures.
var sourceRules = []tagRule{
	{[]string{"bluray", "blu-ray"}, 10, "BluRay"},
	{[]string{"remux"}, 9, "Remux"},
	{[]string{"web-dl", "webdl"}, 8, "WEB-DL"},
	{[]string{"webrip"}, 6, "WEBRip"},
	{[]string{"hdtv"}, 4, "HDTV"},
	{[]string{"dvdrip"}, 3, "DVDRip"},
}

const (
	defaultSourceTier  = 5
	defaultSourceLabel = "Digital"
)

// QualityTag derives the encode quality tier and label from raw title text
// via case-insensitive substring containment. Operates on the raw title, not
// the normalized form; normalization strips the very tokens inspected here.
func QualityTag(rawTitle string) (int, string) {
	return applyRules(rawTitle, qualityRules, defaultQualityTier, defaultQualityLabel)
}

// SourceTag derives the source/provenance tier and label from raw title text.
func SourceTag(rawTitle string) (int, string) {
	return applyRules(rawTitle, sourceRules, defaultSourceTier, defaultSourceLabel)
}

func applyRules(rawTitle string, rules []tagRule, defTier int, defLabel string) (int, string) {
	lower := strings.ToLower(rawTitle)
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.tier, r.label
			}
		}
	}
	return defTier, defLabel
}

var yearTokenRe = regexp.MustCompile(`\b(19|20)\d\d\b`)

// ExtractYear returns the first 4-digit year token (1900-2099) found in a
// left-to-right scan of the raw title, or 0 when none is present.
func ExtractYear(rawTitle string) int {
	tok := yearTokenRe.FindString(rawTitle)
	if tok == "" {
		return 0
	}
	y, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return y
}
