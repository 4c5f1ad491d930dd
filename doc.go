// Package shopserver wires the shop data-access core: configuration,
// logging, the store connection with its migrations, the per-type
// repositories and the user and shop workflow managers.
package shopserver
