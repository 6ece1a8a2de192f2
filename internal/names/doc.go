// Package names splits full names into first name and surname and infers a
// gender from the first name.
//
// Splitting walks the tokens left to right and keeps extending the first-name
// span while tokens are known given names. Known names come from a Cache
// loaded from the first_name_genders table; unknown tokens are put to an
// Oracle (the LLM client) and every answer is persisted so the next run does
// not ask again. A surname is never left empty.
package names
