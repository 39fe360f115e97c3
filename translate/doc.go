// Package translate implements the Translator contract on the OpenAI chat
// completions API. A failed call never propagates: the caller receives a
// fixed bilingual fallback string, because by the time translation runs the
// reply token is already spent and there is no second attempt.
package translate
