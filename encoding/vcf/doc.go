// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*Package vcf parses and formats the text lines of a Variant Call Format file:
  "##" meta-information lines, the "#CHROM" column-header line, and tab-separated
  data records.

  Records are parsed into structured fields and keep the text they were parsed
  from.  Mutating a field marks the record dirty; Line() regenerates the text
  on demand, so a record's text always reflects its fields.
*/
package vcf
