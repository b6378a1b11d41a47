package detect

import "strings"

// CameraNitpickPrompt asks whether feedback nitpicks camera angle/level
// terminology instead of correcting the actual camera position.
const CameraNitpickPrompt = `You are checking whether the FEEDBACK discusses nitpicky terminology changes about camera angle/level terms without changing the actual camera description.

Correct camera terminology:
- Camera ANGLES: high angle, low angle, bird's eye angle, worm's eye angle, Dutch angle, etc.
- Camera HEIGHTS/POSITIONS: hip level, eye level, ground level, overhead, aerial, waist level, etc.

WRONG/NITPICKY patterns we're looking for:
1. "*-level angle" (e.g., "eye-level angle", "hip-level angle") - mixes position term with "angle"
2. Swapping order: "high, eye-level angle" ↔ "eye-level, high angle" - same content, different order
3. Rewording without meaning change: "overhead angle" ↔ "overhead level" - just terminology change
4. Adding/removing "angle" or "level" words: "high angle" ↔ "high, overhead angle"

CRITICAL: We are looking for NITPICKY terminology changes, NOT actual camera position changes.

Examples of NITPICKY changes we're looking for (answer Yes):

Example 1 - Swapping order:
Pre-caption: "From a high, overhead angle"
Feedback: "Change to overhead, high angle"
→ Just swapping order of same terms → Yes

Example 2 - Rewording "angle" to "level":
Pre-caption: "From a high, overhead angle"
Feedback: "Change 'From a high, overhead angle' to 'From a high angle at an overhead level'"
→ Same meaning, just rewording "overhead angle" as "overhead level" → Yes

Example 3 - Wrong terminology:
Pre-caption: "From a high angle at eye level"
Feedback: "Combine as eye-level angle"
→ Suggests using wrong term "eye-level angle" → Yes

Example 4 - Adding redundant terms:
Pre-caption: "From overhead"
Feedback: "Say 'from an overhead, high angle' instead"
→ Adding redundant "high" when overhead already implies high → Yes

Example 5 - Splitting what should be together:
Pre-caption: "From a bird's eye angle"
Feedback: "Change to 'from a bird's eye view at a high angle'"
→ Splitting bird's eye (which already means high angle) → Yes

Example 6 - Points out the terminology issue:
Pre-caption: "Shot from a hip-level angle"
Feedback: "Don't say hip-level angle, that's confusing height with angle"
→ Discusses the terminology confusion → Yes

Examples that are NOT nitpicks (answer No):

Example 1 - Actually changing angle:
Pre-caption: "From a low angle"
Feedback: "Should be high angle, not low angle"
→ Actually changing the angle description → No

Example 2 - Actually changing height:
Pre-caption: "From eye level"
Feedback: "Should be ground level, not eye level"
→ Actually changing the height description → No

Example 3 - Changing both angle and height:
Pre-caption: "From a high angle at eye level"
Feedback: "Should be low angle at ground level"
→ Changing actual camera position → No

Example 4 - About camera movement:
Pre-caption: "From a high angle"
Feedback: "The camera should truck left"
→ Not about angle/level terminology → No

Example 5 - Adding genuinely new information:
Pre-caption: "The camera is static"
Feedback: "Add that it's from a high angle"
→ Adding new info that wasn't there before → No

Example 6 - Removing incorrect information:
Pre-caption: "From a low angle looking up at the sky"
Feedback: "Remove 'looking up at the sky' - that's redundant with low angle"
→ Removing redundancy, not nitpicking terminology → No

---

CRITICAL RULES:
1. Answer Yes if feedback discusses:
   - Swapping order of angle/height terms (same content, different order)
   - Rewording "angle" ↔ "level" without changing meaning (e.g., "overhead angle" ↔ "overhead level")
   - Using "*-level angle" terminology (mixing height word with "angle")
   - Adding redundant angle/height terms that don't change meaning
   - Pointing out this kind of terminology confusion

2. Answer No if feedback is about:
   - Actually changing the camera angle (high → low, etc.)
   - Actually changing the camera height (eye level → ground level, etc.)
   - Camera movement, framing, or other aspects
   - Adding genuinely new information that wasn't present
   - Removing incorrect or truly redundant information

3. The KEY distinction:
   - Yes: "overhead angle" → "overhead level" (same thing, different words - NITPICK)
   - Yes: "high, overhead angle" → "overhead, high angle" (same content, order swap - NITPICK)
   - No: "high angle" → "low angle" (different thing - ACTUAL CHANGE)
   - No: "eye level" → "ground level" (different thing - ACTUAL CHANGE)

---

Inputs:

Feedback:
{final_feedback}

Pre-caption:
{pre_caption}

Final caption:
{final_caption}

---

Output format (STRICT):

Rationale: [Check if feedback is about nitpicky terminology/wording changes (order-swapping, angle↔level rewording, etc.) OR about actual camera position changes. Quote the specific part of feedback that shows this.]
Classification: [Yes or No]`

// GlobalEditPrompt asks whether feedback applies one correction across two
// or more separate places in the pre-caption.
const GlobalEditPrompt = `You are checking whether the feedback contains at least ONE GLOBAL EDIT.

Definition:
- A **feedback point** is one specific correction or instruction in the feedback.
- A **place** is a location in the PRE-CAPTION where specific words are changed to different words in the FINAL CAPTION.

A feedback point is a **GLOBAL EDIT** if it corrects the same factual mistake in **2 or more separate places** in the PRE-CAPTION.

What counts as a GLOBAL EDIT:
- Feedback: "Not man but woman."
  - Pre-caption: "the man walks" → "the woman walks" (place 1)
  - Pre-caption: "he smiles" → "she smiles" (place 2)
  - Pre-caption: "his hand" → "her hand" (place 3)
  - Result: ONE correction (gender) applied to 3 places → GLOBAL EDIT = Yes

- Feedback: "It's a dog, not a cat."
  - Pre-caption: "the cat sits" → "the dog sits" (place 1)
  - Pre-caption: "the cat's tail" → "the dog's tail" (place 2)
  - Result: ONE correction (animal type) applied to 2 places → GLOBAL EDIT = Yes

What does NOT count as a GLOBAL EDIT:
- Sentence restructuring or reordering (moving phrases around without changing word content)
- Adding new information to one location
- Rewriting one sentence/phrase, even if it becomes longer
- Style changes (making text more concise, changing voice, etc.)
- Corrections that only appear in ONE location, no matter how many words changed

CRITICAL: Only count as "places" where the actual WORDS are changed, not where sentences are restructured or reordered.

---

Inputs:

Feedback:
{final_feedback}

Pre-caption:
{pre_caption}

Final caption:
{final_caption}

---

Your task:

1. Split the feedback into separate feedback points.
2. For EACH feedback point:
   a. Check if it corrects a factual mistake (like wrong gender, object, color, position, etc.)
   b. Count how many SEPARATE LOCATIONS have this same correction applied
   c. Only count locations where words actually CHANGE (not just move/reorder)

3. If ANY feedback point corrects the same mistake in 2+ separate locations → Yes
4. Otherwise → No

---

Output format (STRICT):

Rationale: [For each feedback point: state what correction it makes and how many separate locations have this correction. If Yes, clearly identify which feedback point is global and list the 2+ locations with the specific text that changed (quote the actual words that were different).]
Classification: [Yes or No]`

// FormatPrompt substitutes the sample fields into a prompt template.
func FormatPrompt(template, finalFeedback, preCaption, finalCaption string) string {
	return strings.NewReplacer(
		"{final_feedback}", finalFeedback,
		"{pre_caption}", preCaption,
		"{final_caption}", finalCaption,
	).Replace(template)
}
