package extract

// DefaultPrompt asks a vision model for every text block on a slide image in
// the {"textBlocks": [...]} schema Decode reads.
const DefaultPrompt = `You are given one slide image. Find every block of visible text on it.

Reply with a single JSON object and nothing else:

{"textBlocks": [
  {
    "text": "the exact text of the block, with line breaks as \n",
    "box_2d": [ymin, xmin, ymax, xmax],
    "fontSize": 24,
    "fontColor": "1A1A1A",
    "fontFamilyType": "sans-serif",
    "alignment": "left",
    "isBold": false,
    "isItalic": false
  }
]}

Rules:
- box_2d coordinates are integers from 0 to 1000, relative to the image height (y) and width (x).
- fontSize is the apparent size in points on a 16:9 slide 720 points wide.
- fontColor is a six digit hex color without '#'.
- fontFamilyType is one of: sans-serif, serif, monospace, handwriting.
- alignment is one of: left, center, right, justify.
- Keep the reading order of the slide. Group lines of one paragraph into one block.
- Text that is part of a photo, chart or logo also counts if it is legible.
- If the slide has no text, reply {"textBlocks": []}.`
