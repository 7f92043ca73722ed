// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package writeback

// conflictsWithLiability is the conflict oracle: it decides whether an
// outstanding liability l is a hazard a younger request r must wait behind.
// l is a hazard to r iff l is strictly older (by generation) and either l is
// an append (whose true offset isn't known until it actually lands), strict
// write ordering is in force (every write must drain behind every older
// one), or their byte ranges actually overlap.
func conflictsWithLiability(r, l *Request, strictOrdering bool) bool {
	if l == r {
		return false
	}
	if !(l.Gen < r.Gen) {
		return false
	}
	return l.Append || strictOrdering || overlaps(l, r)
}

// conflictsWithAny reports whether r conflicts with any request in liabilities.
func conflictsWithAny(r *Request, liabilities []*Request, strictOrdering bool) bool {
	for _, l := range liabilities {
		if conflictsWithLiability(r, l, strictOrdering) {
			return true
		}
	}
	return false
}
