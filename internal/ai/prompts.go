package ai

import (
	"fmt"
	"strings"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

// StyleRecipePrompt asks a vision model for a text-overlay recipe. The
// section layout is a formatting request to the model; nothing parses it.
const StyleRecipePrompt = `You are an expert typographer and graphic designer.

Study the TEXT / TITLE OVERLAY of the attached YouTube thumbnail and write a "Design Replication Recipe"
that lets someone rebuild the same typography (layout, font, colors, effects) with their own words and
their own background.

Be concrete: use percentages and precise descriptors such as "Ultra-Condensed" or "Negative Tracking".

Answer in exactly this format:

### Text Overlay Recipe: [Descriptive Style Name]
[One or two sentences on the purpose and vibe of the style]

---

### 1. Position & Layout
*   **Coordinates**: vertical placement (e.g. "occupies the bottom 35-40%") and margins (e.g. "no margin, touches the bottom edge").
*   **Alignment**: horizontal alignment and whether the text spans the full width.
*   **Rotation**: exact angle (e.g. "0 degrees").
*   **Size**: relative scale (e.g. "1/3 of total height"), line spacing and stacking density.

### 2. Color & Hierarchy
*   **Primary Fill**: the palette, with hex codes.
*   **Emphasis Logic**: why particular words get particular colors, quoting the **actual text visible in the image**.
    *   **[Color Name]**: applied to ... (e.g. the quoted phrase 'TEXT').
    *   **[Color Name]**: applied to ... (e.g. the connecting words).
    *   **[Color Name]**: applied to ... (e.g. the climax word 'TEXT').
*   **Pattern**: how color moves through the title (e.g. "shifts left to right").

### 3. Font & Styling DNA
*   **Font Style**: classification (e.g. "Ultra-Condensed Sans-Serif / Gothic").
*   **Weight**: stroke thickness (e.g. "Ultra Black / Heavy").
*   **Spacing (Kerning/Tracking)**: CRITICAL. Describe the tracking (e.g. "negative tracking, glyphs touching or overlapping").
*   **Casing**: case and character width.

### 4. Effects & Readability
*   **Stroke/Outline**: thickness and behaviour (e.g. "very heavy solid black stroke, ~25% of glyph width, merging letters into one block").
*   **Shadow**: drop shadow details.
*   **Backdrop**: any container or band behind the text.

---

### 5. Implementation Summary
[One short paragraph: "To match this style: place ... use ... color ... apply ..."]
`

// BuildGenerationPrompt assembles the edit instruction. Every segment is
// paired with its literal color, and the recipe is embedded verbatim with
// its colors overridden.
func BuildGenerationPrompt(recipe string, title models.TitleComposition) string {
	var b strings.Builder

	b.WriteString("You are an expert thumbnail artist.\n\n")
	b.WriteString("TASK: Edit the provided background image by adding a high-impact text overlay.\n\n")
	b.WriteString("1. **Base Image**: Use the provided image as the background. Keep the main subject intact and undistorted.\n\n")
	b.WriteString("2. **Text Content & Color Mapping**:\n")
	b.WriteString("   Write the text as TWO stacked lines, following these content and color rules exactly:\n\n")
	writeLine(&b, 1, "Top", title.Top1, title.Top2)
	writeLine(&b, 2, "Bottom", title.Bottom1, title.Bottom2)
	b.WriteString("3. **Style & Layout**:\n")
	b.WriteString("   Apply the layout, font weight, strokes and effects described in the \"Text Overlay Recipe\" below, ")
	b.WriteString("BUT **override its colors** with the colors requested above.\n\n")
	b.WriteString(recipe)
	b.WriteString("\n\nOutput a single high-quality image with the text applied.\n")

	return b.String()
}

func writeLine(b *strings.Builder, n int, label string, first, second models.TextSegment) {
	fmt.Fprintf(b, "   *   **LINE %d (%s)**:\n", n, label)
	fmt.Fprintf(b, "       *   First part: \"%s\" -> Color: %s\n", first.Text, first.Color)
	fmt.Fprintf(b, "       *   Second part: \"%s\" -> Color: %s\n\n", second.Text, second.Color)
}
