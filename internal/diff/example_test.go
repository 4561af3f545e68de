// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff_test

import (
	"fmt"

	"github.com/jeranaias/rigrun-diffs/internal/diff"
)

func ExampleComputeDiff() {
	oldContent := "package main\n\nfunc main() {\n\tfmt.Println(\"Hello\")\n}\n"
	newContent := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"Hello, World!\")\n}\n"

	d := diff.ComputeDiff("main.go", oldContent, newContent)
	fmt.Println(d.Summary())

	// Output:
	// Modified +3 -1
}

func ExampleFormatUnifiedDiff() {
	d := diff.ComputeDiff("file.txt", "line1\nline2\nline3", "line1\nmodified\nline3")
	fmt.Print(diff.FormatUnifiedDiff(d))

	// Output:
	// --- a/file.txt
	// +++ b/file.txt
	// @@ -1,3 +1,3 @@
	//  line1
	// -line2
	// +modified
	//  line3
}
