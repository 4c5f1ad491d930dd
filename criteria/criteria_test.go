/*
 * Copyright 2025 DeadNord.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
)

type person struct {
	name  string
	email string
	owner string
}

var people = field.NewRegistry[person]("Person",
	field.String(field.Name, "name", func(p *person) *string { return &p.name }),
	field.String(field.Email, "email", func(p *person) *string { return &p.email }),
	field.String(field.OwnerID, "owner_id", func(p *person) *string { return &p.owner }),
)

func TestExpand(t *testing.T) {
	assert.Equal(t, []interface{}{"a", "b"}, Expand(" a, b ,,a"))
	assert.Equal(t, []interface{}{"single"}, Expand("single"))
	assert.Equal(t, []interface{}{42}, Expand(42))
	assert.Empty(t, Expand(", ,"))
	assert.True(t, IsList("x,y"))
	assert.False(t, IsList(3))
}

func TestOf(t *testing.T) {
	c := Of(field.Name, "alice", field.Email, "a@example.com", "ignored")
	assert.Equal(t, []field.Key{field.Email, field.Name}, c.Keys())
	assert.Equal(t, map[string]interface{}{"name": "alice", "email": "a@example.com"}, c.Raw())
	assert.Equal(t, Criteria{field.ID: "x"}, ByID("x"))
}

func TestSidePattern(t *testing.T) {
	tests := []struct {
		side  Side
		value string
		want  string
	}{
		{SideBoth, "ali", "%ali%"},
		{SideRight, "ali", "ali%"},
		{SideLeft, "ice", "%ice"},
		{SideBoth, "50%_off!", "%50!%!_off!!%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.side.Pattern(tt.value), "%s %s", tt.side, tt.value)
	}

	s, ok := ParseSide("right")
	require.True(t, ok)
	assert.Equal(t, SideRight, s)
	assert.False(t, Side("MIDDLE").IsValid())
}

func TestBuild(t *testing.T) {
	b := NewBuilder(people)

	f, err := b.Build(Of(field.Name, "alice,bob", field.Email, "a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "(? = ?) AND (? IN (?))", f.Schema)
	assert.Len(t, f.Args, 4)

	f, err = b.Build(Criteria{field.Name: nil})
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())

	_, err = b.Build(Of(field.Role, "ADMIN"))
	var unknown *types.UnknownFieldError
	assert.ErrorAs(t, err, &unknown)
}

func TestBuildBySide(t *testing.T) {
	b := NewBuilder(people)

	f, err := b.BuildBySide(Of(field.Name, "al,bo"), SideRight)
	require.NoError(t, err)
	assert.Equal(t, "((? LIKE ? ESCAPE '!') OR (? LIKE ? ESCAPE '!'))", f.Schema)
	assert.Equal(t, "al%", f.Args[1])
	assert.Equal(t, "bo%", f.Args[3])

	_, err = b.BuildBySide(Of(field.Name, "al"), Side("MIDDLE"))
	assert.Error(t, err)
}

func TestBuildEmptyListMatchesNothing(t *testing.T) {
	b := NewBuilder(people)

	for _, value := range []string{",", " , ", ",,,"} {
		f, err := b.Build(Of(field.Email, value))
		require.NoError(t, err)
		require.False(t, f.IsEmpty(), "%q", value)
		assert.Equal(t, "(1 = 0)", f.Schema)
		assert.Empty(t, f.Args)

		f, err = b.BuildBySide(Of(field.Email, value), SideBoth)
		require.NoError(t, err)
		assert.Equal(t, "(1 = 0)", f.Schema)
	}

	f, err := b.Build(Of(field.Email, ",", field.Name, "alice"))
	require.NoError(t, err)
	assert.Equal(t, "(1 = 0) AND (? = ?)", f.Schema)
}

func TestBuildBySideReportsFieldKey(t *testing.T) {
	b := NewBuilder(people)

	_, err := b.BuildBySide(Of(field.OwnerID, []int{1}), SideBoth)
	var invalid *types.InvalidFieldTypeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "ownerId", invalid.Field)
	assert.Equal(t, "Person", invalid.Entity)
}
