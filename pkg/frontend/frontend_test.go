package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/parser"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	pm := parser.NewParserManager(nil)
	t.Cleanup(func() { _ = pm.Close() })
	return NewRegistry(pm, nil)
}

func TestParseTypeScript_ClassWithMethodCall(t *testing.T) {
	source := []byte(`import { UserRepository } from "./repository";

export class UserService {
    private repository: UserRepository;

    getUser(id: string): string {
        return this.repository.findById(id);
    }
}
`)
	pf, err := newRegistry(t).ParseFile(context.Background(), source, "src/service.ts")
	require.NoError(t, err)

	assert.Equal(t, model.LangTypeScript, pf.Language)
	require.Len(t, pf.Imports, 1)
	assert.Equal(t, "./repository", pf.Imports[0].ModuleSpecifier)
	assert.Equal(t, "UserRepository", pf.Imports[0].ImportedName)

	require.Len(t, pf.Classes, 1)
	cls := pf.Classes[0]
	assert.Equal(t, "UserService", cls.Name)
	require.Len(t, cls.Properties, 1)
	assert.Equal(t, "repository", cls.Properties[0].Name)
	assert.Equal(t, "UserRepository", cls.Properties[0].Type)

	require.Len(t, cls.Functions, 1)
	fn := cls.Functions[0]
	assert.Equal(t, "getUser", fn.Name)
	require.NotEmpty(t, fn.Calls)
	assert.Equal(t, "findById", fn.Calls[0].CalleeName)
}

func TestParseTypeScript_InterfaceAndTypeAlias(t *testing.T) {
	source := []byte(`export interface Repository {
    findById(id: string): string;
}

export type Repo = Repository;
`)
	pf, err := newRegistry(t).ParseFile(context.Background(), source, "src/types.ts")
	require.NoError(t, err)

	require.Len(t, pf.Classes, 1)
	assert.Equal(t, model.ClassKindInterface, pf.Classes[0].Kind)
	require.Len(t, pf.TypeAliases, 1)
	assert.Equal(t, "Repo", pf.TypeAliases[0].Name)
	assert.Equal(t, "Repository", pf.TypeAliases[0].AliasedType)
}

func TestParseTypeScript_Reexport(t *testing.T) {
	source := []byte(`export { UserService as Service } from "./service";
export * from "./helpers";
`)
	pf, err := newRegistry(t).ParseFile(context.Background(), source, "src/index.ts")
	require.NoError(t, err)

	require.Len(t, pf.Reexports, 2)
	assert.Equal(t, "./service", pf.Reexports[0].SourceSpecifier)
	assert.Equal(t, "UserService", pf.Reexports[0].OriginalName)
	assert.Equal(t, "Service", pf.Reexports[0].ExportedName)
	assert.True(t, pf.Reexports[1].IsWildcard)
}

func TestParseJavaScript_TopLevelFunctions(t *testing.T) {
	source := []byte(`function greet(name) {
    return format(name);
}

const shout = (name) => greet(name);
`)
	pf, err := newRegistry(t).ParseFile(context.Background(), source, "src/greet.js")
	require.NoError(t, err)

	assert.Equal(t, model.LangJavaScript, pf.Language)
	require.Len(t, pf.Functions, 2)
	assert.Equal(t, "greet", pf.Functions[0].Name)
	require.NotEmpty(t, pf.Functions[0].Calls)
	assert.Equal(t, "format", pf.Functions[0].Calls[0].CalleeName)
	assert.Equal(t, "shout", pf.Functions[1].Name)
}

func TestParseJava_ClassWithPackage(t *testing.T) {
	source := []byte(`package com.shop.billing;

public class InvoiceService {
    private InvoiceRepository repository;

    public String charge(String id) {
        return repository.findById(id);
    }
}
`)
	pf, err := newRegistry(t).ParseFile(context.Background(), source, "src/InvoiceService.java")
	require.NoError(t, err)

	assert.Equal(t, "com.shop.billing", pf.Package)
	require.Len(t, pf.Classes, 1)
	cls := pf.Classes[0]
	assert.Equal(t, "InvoiceService", cls.Name)
	require.Len(t, cls.Functions, 1)
	assert.Equal(t, "charge", cls.Functions[0].Name)
	require.NotEmpty(t, cls.Functions[0].Calls)
	assert.Equal(t, "findById", cls.Functions[0].Calls[0].CalleeName)
	assert.Equal(t, "repository", cls.Functions[0].Calls[0].ReceiverText)
}

func TestParseKotlin_ClassAndTopLevelFunction(t *testing.T) {
	source := []byte(`package com.shop.users

import com.shop.core.Logger

class UserService {
    fun save(name: String): String {
        return format(name)
    }
}

fun format(name: String): String = name
`)
	pf, err := newRegistry(t).ParseFile(context.Background(), source, "src/UserService.kt")
	require.NoError(t, err)

	assert.Equal(t, model.LangKotlin, pf.Language)
	assert.Equal(t, "com.shop.users", pf.Package)
	require.Len(t, pf.Imports, 1)
	assert.Equal(t, "com.shop.core.Logger", pf.Imports[0].ModuleSpecifier)

	require.Len(t, pf.Classes, 1)
	assert.Equal(t, "UserService", pf.Classes[0].Name)
	require.Len(t, pf.Classes[0].Functions, 1)
	assert.Equal(t, "save", pf.Classes[0].Functions[0].Name)

	require.Len(t, pf.Functions, 1)
	assert.Equal(t, "format", pf.Functions[0].Name)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, err := newRegistry(t).ParseFile(context.Background(), []byte("x"), "README.md")
	var parseErr *model.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "README.md", parseErr.Path)
}

func TestParse_EmptySourceIsNotAnError(t *testing.T) {
	pf, err := newRegistry(t).ParseFile(context.Background(), []byte(""), "src/empty.ts")
	require.NoError(t, err)
	assert.Empty(t, pf.Classes)
	assert.Empty(t, pf.Functions)
}
