package restore

// DefaultPrompt asks the image model for an empty template of the slide.
const DefaultPrompt = `Turn this presentation slide into a blank template of itself.

Remove every piece of text: titles, body text, bullet points, numbers, labels, captions, table contents and chart annotations, in every script (Chinese, Japanese, Korean, Latin and digits). Fill the area where text was with the surrounding background so no trace of the glyphs remains.

Keep everything that is not text exactly as it is:
- the background color or gradient of this slide, matched to the original and not shifted toward white or gray
- table grid lines and cell borders, with every cell left empty
- panels, cards, boxes and divider lines with their shapes and fills
- icons, logos, avatars, arrows, photos and illustrations

Do not add new shapes, decorations or text. Keep the 16:9 layout and the positions of all remaining elements.`
