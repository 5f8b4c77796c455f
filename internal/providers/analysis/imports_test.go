package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStaticImports(t *testing.T) {
	code := `import React from "react";
import { Button } from "@/components/ui/Button";
import * as Icons from 'lucide-react';
import "./styles.css";

export default function App() {
  return <Button>Go</Button>;
}
`
	got, err := NewAnalyzer().Parse(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "@/components/ui/Button", "lucide-react", "./styles.css"}, got)
}

func TestParseTypeScript(t *testing.T) {
	code := `import type { FC } from "react";
import { cn } from "@/lib/utils";

interface Props { label: string }

export const Card: FC<Props> = ({ label }) => <div className={cn("card")}>{label}</div>;
`
	got, err := NewAnalyzer().Parse(context.Background(), code)
	require.NoError(t, err)
	assert.Contains(t, got, "react")
	assert.Contains(t, got, "@/lib/utils")
}

func TestParseReExportsDynamicAndRequire(t *testing.T) {
	code := `export { Dialog } from "./Dialog";
export * from "./Sheet";
const Lazy = React.lazy(() => import("@/components/ui/Chart"));
const fs = require("fs");
export const x = 1;
`
	got, err := NewAnalyzer().Parse(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, []string{"./Dialog", "./Sheet", "@/components/ui/Chart", "fs"}, got)
}

func TestParseDedupes(t *testing.T) {
	code := `import { A } from "./a";
import { B } from "./a";
`
	got, err := NewAnalyzer().Parse(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, []string{"./a"}, got)
}

func TestParseEmptyAndNonCode(t *testing.T) {
	a := NewAnalyzer()

	got, err := a.Parse(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = a.Parse(context.Background(), `{"name": "app", "dependencies": {}}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseConcurrent(t *testing.T) {
	a := NewAnalyzer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := a.Parse(context.Background(), `import x from "y";`)
			assert.NoError(t, err)
			assert.Equal(t, []string{"y"}, got)
		}()
	}
	wg.Wait()
}
