package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Host       *hostBlock        `hcl:"host,block"`
	Components []*componentBlock `hcl:"component,block"`
	Gates      []*gateBlock      `hcl:"gate,block"`
	Expects    []*expectBlock    `hcl:"expect,block"`
	Sources    []*sourceBlock    `hcl:"source,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

// hostBlock declares host primitives. Omitted attributes mean present.
type hostBlock struct {
	ArrayPredicate  *bool `hcl:"array_predicate,optional"`
	Futures         *bool `hcl:"futures,optional"`
	AllSettled      *bool `hcl:"all_settled,optional"`
	Containment     *bool `hcl:"containment,optional"`
	SubtreeObserver *bool `hcl:"subtree_observer,optional"`
}

type componentBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Settings    *settingsBlock `hcl:"settings,block"`
}

// settingsBlock holds arbitrary attributes, evaluated at load time.
type settingsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type gateBlock struct {
	Name       string   `hcl:"name,label"`
	Components []string `hcl:"components"`
	Timeout    string   `hcl:"timeout,optional"`
	Open       *bool    `hcl:"open,optional"`
}

type expectBlock struct {
	Path        string `hcl:"path,label"`
	Description string `hcl:"description,optional"`
}

type sourceBlock struct {
	Kind               string   `hcl:"kind,label"`
	Path               string   `hcl:"path,optional"`
	Patterns           []string `hcl:"patterns,optional"`
	URL                string   `hcl:"url,optional"`
	Namespace          string   `hcl:"namespace,optional"`
	Event              string   `hcl:"event,optional"`
	InsecureSkipVerify *bool    `hcl:"insecure_skip_verify,optional"`
}
