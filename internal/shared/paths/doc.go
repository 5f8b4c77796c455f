// Package paths provides the repository path conventions shared by prompt
// building, dependency reconciliation and ingestion.
//
// # Layout
//
//	src/                     (SourcePrefix, imported through the @/ alias)
//	  components/ui/**       (default internal component namespace)
//	package.json             (dependency manifest)
//
// # Usage
//
//	ns, err := paths.NewNamespace(paths.DefaultLayout())
//	ns.Contains("src/components/ui/Button/Button.tsx") // true
//	ns.ToAlias("src/components/ui/Button/Button.tsx")  // @/components/ui/Button/Button.tsx
//	ns.Resolve("@/components/ui/Button/Button", "src/App.tsx") // src/components/ui/Button/Button, true
//
// Namespace patterns use doublestar glob syntax.
package paths
