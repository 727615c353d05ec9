// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the sumy TUI.

# Display Components

Header (header.go) - Title bar with the signed-in user and service state.
MessageBubble (message.go) - Styled bubbles for user, assistant and error
messages. Assistant content goes through a glamour renderer so inline
emphasis shows as bold and italic.
HistoryPanel (history_panel.go) - List of saved conversation summaries.

# Progress and Feedback

Spinner (spinner.go) - Animated loading indicator shown while a query is in
flight.
*/
package components
