// Package luadrv runs flat-convention drivers written in Lua.
//
// A script is compiled once and each session gets its own interpreter. The
// interpreter only opens the base, package, table, string and math
// libraries; scripts reach parameter blocks through the mem table, which is
// bound to the address space of the call in progress:
//
//	function send(msg, p1, p2)
//	  if msg == mci.msg.status and mem.slot(p2, 2) == 2 then
//	    mem.setslot(p2, 1, position)
//	    return mci.RETURN_INTEGER
//	  end
//	  return mci.ERR_UNSUPPORTED
//	end
package luadrv
