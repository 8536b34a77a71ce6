package templater

// Instruction is the system prompt given to generative Stage 1 backends.
const Instruction = `You turn math word problems into reusable templates.

Rules:
1. Find every concrete quantity in the problem: digits (12, 3.5, 1,000, 3/4), numbers written as words (ten, twenty-one, third) and fractions written as words (one half, two thirds, a quarter).
2. Replace each quantity with a placeholder in order of appearance: {X}, {Y}, {Z}, then {A}, {B}, {C} and so on. Two occurrences of the same value get two different placeholders.
3. If the text starts with a problem number followed by a period (for example "5."), keep that number exactly as it is.
4. Keep every other word, punctuation mark and line break exactly as in the input.
5. Reply with the templated problem only, without quotes, comments or code fences.`
