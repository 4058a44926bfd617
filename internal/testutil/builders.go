package testutil

import (
	"gopkg.in/yaml.v3"
)

// CatalogBuilder builds a catalog override file. Only the keys that were
// set end up in the output, so everything else keeps its default.
type CatalogBuilder struct {
	doc map[string]interface{}
}

// NewCatalogBuilder creates an empty CatalogBuilder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{doc: map[string]interface{}{}}
}

// WithShell sets the login shell.
func (b *CatalogBuilder) WithShell(shell string) *CatalogBuilder {
	b.doc["shell"] = shell
	return b
}

// WithEssentials replaces the essential package set.
func (b *CatalogBuilder) WithEssentials(pkgs ...string) *CatalogBuilder {
	b.doc["essentials"] = pkgs
	return b
}

// WithServices replaces the services to enable.
func (b *CatalogBuilder) WithServices(services ...string) *CatalogBuilder {
	b.doc["services"] = services
	return b
}

// WithGaming enables or disables the gaming set.
func (b *CatalogBuilder) WithGaming(enabled bool) *CatalogBuilder {
	b.section("gaming")["enabled"] = enabled
	return b
}

// WithDotfilesRepo sets the chezmoi repository.
func (b *CatalogBuilder) WithDotfilesRepo(repo string) *CatalogBuilder {
	b.section("dotfiles")["repo"] = repo
	return b
}

// WithMirrors configures mirror ranking.
func (b *CatalogBuilder) WithMirrors(enabled bool, country string) *CatalogBuilder {
	s := b.section("mirrors")
	s["enabled"] = enabled
	s["country"] = country
	return b
}

// WithSnapshot enables or disables the pre-run snapshot.
func (b *CatalogBuilder) WithSnapshot(enabled bool) *CatalogBuilder {
	b.section("snapshot")["enabled"] = enabled
	return b
}

func (b *CatalogBuilder) section(name string) map[string]interface{} {
	if s, ok := b.doc[name].(map[string]interface{}); ok {
		return s
	}
	s := map[string]interface{}{}
	b.doc[name] = s
	return s
}

// ToYAML renders the override file.
func (b *CatalogBuilder) ToYAML() string {
	out, err := yaml.Marshal(b.doc)
	if err != nil {
		return ""
	}
	return string(out)
}
