// Package manager runs the user and shop workflows. Every mutation executes
// as one store transaction whose writes are version-conditioned; a lost race
// rolls the transaction back and the whole workflow is retried a bounded
// number of times before the conflict is reported.
package manager
