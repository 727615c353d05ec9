// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sumy TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Wine - Brand, assistant bubbles, the spinner
  - Gold - Highlights and the login button
  - Rose - Error messages

StatusIndicators pair every status color with an ASCII marker for
colorblind users.

# Theme System (theme.go)

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	bubble := theme.Bubble(msg.Type).MaxWidth(theme.BubbleWidth())

# Animation System (animations.go)

SpinnerConfig values feed the loading indicator in the components package.
*/
package styles
