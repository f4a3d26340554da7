package annotation

// catSleepsXML is the analysis of "The cat sleeps." with "sleeps" governing
// the other two words.
const catSleepsXML = `<?xml version="1.0" encoding="UTF-8"?>
<text>
  <sentence begin_offset="0" end_offset="15" lang="en">
    <clause type="main" idx="0">
      <word idx="0" syntax_parent_idx="1" syntax_link_name="det" begin_offset="0" end_offset="3" lemma="the" bGeo="false"/>
      <word idx="1" syntax_parent_idx="2" syntax_link_name="nsubj" begin_offset="4" end_offset="7" lemma="cat" bGeo="false"/>
      <word idx="2" syntax_parent_idx="2" syntax_link_name="root" begin_offset="8" end_offset="14" lemma="sleep" bGeo="false"/>
    </clause>
    <role word_idx="2">
      <arg word_idx="1" role_id="1"/>
    </role>
  </sentence>
</text>`
