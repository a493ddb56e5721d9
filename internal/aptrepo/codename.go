package aptrepo

// Codenames the upstream repository publishes packages for. Detected
// codenames outside this set are remapped; nothing ever passes through
// unchanged, since a syntactically valid but unpublished codename would
// produce an unreachable repository entry.
var supportedCodenames = map[string]struct{}{
	"bookworm": {},
	"trixie":   {},
	"focal":    {},
	"jammy":    {},
	"noble":    {},
}

// Rolling or derivative codenames mapped to the nearest stable codename
// known upstream.
var codenameRemap = map[string]string{
	"sid":      "bookworm",
	"unstable": "bookworm",
	"testing":  "trixie",
	"forky":    "trixie",
	"devel":    "noble",
	"oracular": "noble",
	"plucky":   "noble",
	"questing": "noble",
	"wilma":    "noble", // Linux Mint 22
	"faye":     "jammy", // LMDE 6 tracks bookworm userspace on jammy-era repos
}

const defaultCodename = "bookworm"

// ResolveCodename maps a detected distribution codename into the supported
// set. Unknown codenames get the fixed default.
func ResolveCodename(detected string) string {
	if _, ok := supportedCodenames[detected]; ok {
		return detected
	}
	if mapped, ok := codenameRemap[detected]; ok {
		return mapped
	}
	return defaultCodename
}
