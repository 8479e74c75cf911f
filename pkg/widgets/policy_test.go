package widgets

import (
	"strings"
	"testing"

	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

func TestRegistry_BuiltinDialects(t *testing.T) {
	reg := NewRegistry()
	for _, dialect := range []pkgopenapi.Dialect{pkgopenapi.DialectSwagger2, pkgopenapi.DialectOpenAPI3} {
		policy, err := reg.Policy(dialect)
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		if policy.Dialect() != dialect {
			t.Fatalf("expected dialect %s, got %s", dialect, policy.Dialect())
		}
	}

	if _, err := reg.Policy(pkgopenapi.Dialect("graphql")); err == nil || !strings.Contains(err.Error(), "graphql") {
		t.Fatalf("expected unknown dialect error, got %v", err)
	}
}

type keywordSniffer struct{}

func (keywordSniffer) Sniff(description string) MediaMatch {
	if strings.HasPrefix(description, "media:video") {
		return MediaMatch{Kinds: []model.MediaKind{model.MediaVideo}}
	}
	return MediaMatch{}
}

func (keywordSniffer) Clean(description string) string {
	return strings.TrimPrefix(description, "media:video ")
}

func TestRegistry_RegisterCustomSniffer(t *testing.T) {
	reg := NewRegistry()
	reg.Register(pkgopenapi.Dialect("explicit"), func(options ...PolicyOption) *Policy {
		return NewPolicy(pkgopenapi.Dialect("explicit"), append([]PolicyOption{WithSniffer(keywordSniffer{})}, options...)...)
	})

	policy, err := reg.Policy(pkgopenapi.Dialect("explicit"))
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	widgets, err := policy.MapInputs([]model.ParameterSpec{
		{Name: "clip", Kind: model.KindFile, Description: "media:video an image sequence"},
	})
	if err != nil {
		t.Fatalf("map inputs: %v", err)
	}
	if widgets[0].Kind != model.WidgetVideo {
		t.Fatalf("expected custom sniffer to pick video, got %s", widgets[0].Kind)
	}
	if widgets[1].Config.InfoText != "an image sequence" {
		t.Fatalf("expected custom clean, got %q", widgets[1].Config.InfoText)
	}
	if got := reg.Dialects(); len(got) != 3 {
		t.Fatalf("expected three dialects, got %v", got)
	}
}

func TestDescriptionSniffer(t *testing.T) {
	sniffer := NewDescriptionSniffer()

	match := sniffer.Sniff("Video frames or IMAGE stills")
	if len(match.Kinds) != 2 || match.Kinds[0] != model.MediaImage || match.Kinds[1] != model.MediaVideo {
		t.Fatalf("unexpected kinds %v", match.Kinds)
	}
	if _, ok := match.Single(); ok {
		t.Fatalf("two matches must not be single")
	}
	if kind, ok := match.First(); !ok || kind != model.MediaImage {
		t.Fatalf("expected image first, got %v", kind)
	}

	noParse := sniffer.Sniff("image tarball (No-Parse)")
	if !noParse.NoParse {
		t.Fatalf("expected marker detected case-insensitively")
	}
	if _, ok := noParse.First(); ok {
		t.Fatalf("no-parse must suppress media")
	}
	if got := sniffer.Clean("image  tarball (No-Parse) here"); got != "image tarball here" {
		t.Fatalf("unexpected clean result %q", got)
	}
}
