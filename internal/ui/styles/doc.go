// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles of the diff viewer.

All colors are lipgloss AdaptiveColor values, so the same palette works on
light and dark terminals. Status text always carries an ASCII marker from
StatusIndicators next to its color.

# Usage

	r := lipgloss.NewRenderer(os.Stdout)
	theme := styles.NewTheme(r)
	fmt.Println(theme.Approved.Render(styles.StatusIndicators.Success + " Changes Reviewed"))
*/
package styles
