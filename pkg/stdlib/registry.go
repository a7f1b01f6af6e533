package stdlib

import (
	"fmt"

	"github.com/codegraph/codegraph/pkg/model"
)

// Registry resolves the composite stdlib Provider for a given language,
// built once and reused across an indexing pass.
type Registry struct {
	byLanguage map[model.Language]Provider
}

// NewRegistry loads every embedded fixture and composes the per-language
// providers: JavaScript stands alone, TypeScript layers on JavaScript, Java
// and Kotlin both layer their own fixture over the shared JVM fixture.
func NewRegistry() (*Registry, error) {
	javascript, err := loadFixture("javascript.yaml", model.LangJavaScript)
	if err != nil {
		return nil, err
	}
	typescriptOwn, err := loadFixture("typescript.yaml", model.LangTypeScript)
	if err != nil {
		return nil, err
	}
	jvmShared, err := loadFixture("jvm.yaml", model.LangUnknown)
	if err != nil {
		return nil, err
	}
	javaOwn, err := loadFixture("java.yaml", model.LangJava)
	if err != nil {
		return nil, err
	}
	kotlinOwn, err := loadFixture("kotlin.yaml", model.LangKotlin)
	if err != nil {
		return nil, err
	}

	return &Registry{byLanguage: map[model.Language]Provider{
		model.LangJavaScript: javascript,
		model.LangTypeScript: NewComposite(typescriptOwn, javascript),
		model.LangJava:       NewComposite(javaOwn, jvmShared),
		model.LangKotlin:     NewComposite(kotlinOwn, jvmShared),
	}}, nil
}

// Get returns the composite Provider for lang.
func (r *Registry) Get(lang model.Language) (Provider, error) {
	p, ok := r.byLanguage[lang]
	if !ok {
		return nil, fmt.Errorf("stdlib: no provider registered for language %s", lang)
	}
	return p, nil
}
